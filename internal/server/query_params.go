package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
)

func parseOptionalInt64(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// parseLimit reads the optional list limit. Zero means the store default.
func parseLimit(value string) (int, error) {
	limit, err := parseOptionalInt64(value)
	if err != nil {
		return 0, err
	}
	if limit == nil {
		return 0, nil
	}
	if *limit < 0 {
		return 0, errors.New("invalid_limit")
	}
	return int(*limit), nil
}
