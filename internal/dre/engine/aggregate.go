package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/domain"
)

type accountKey struct {
	category int
	account  string
}

// Aggregate folds lines into a Category -> Account tree in one pass.
// Categories and accounts keep first-seen order. Lines without a category
// merge under the uncategorized key, lines without an account under no_account.
func Aggregate(lines []domain.ClassifiedLine) domain.Tree {
	tree := domain.Tree{
		Categories: []domain.CategoryNode{},
		Accounts:   []domain.AccountNode{},
	}
	categoryIdx := make(map[string]int)
	accountIdx := make(map[accountKey]int)

	for _, line := range lines {
		catKey, catName := line.CategoryID, line.CategoryName
		if catKey == "" {
			catKey, catName = domain.UncategorizedKey, domain.UncategorizedName
		}
		ci, ok := categoryIdx[catKey]
		if !ok {
			ci = len(tree.Categories)
			categoryIdx[catKey] = ci
			tree.Categories = append(tree.Categories, domain.CategoryNode{
				CategoryID:   catKey,
				CategoryName: catName,
				Accounts:     []int{},
				Total:        decimal.Zero,
			})
		}

		accKey, accName := line.AccountID, line.AccountName
		if accKey == "" {
			accKey, accName = domain.NoAccountKey, domain.NoAccountName
		}
		key := accountKey{category: ci, account: accKey}
		ai, ok := accountIdx[key]
		if !ok {
			ai = len(tree.Accounts)
			accountIdx[key] = ai
			tree.Accounts = append(tree.Accounts, domain.AccountNode{
				CategoryIndex: ci,
				AccountID:     accKey,
				AccountName:   accName,
				Total:         decimal.Zero,
			})
			tree.Categories[ci].Accounts = append(tree.Categories[ci].Accounts, ai)
		}

		node := &tree.Accounts[ai]
		node.Lines = append(node.Lines, line)
		node.LineCount++
		node.Total = node.Total.Add(line.Value)
		tree.Categories[ci].Total = tree.Categories[ci].Total.Add(line.Value)
	}
	return tree
}

// Summarize drops line detail and keeps the totals and line counts.
func Summarize(tree domain.Tree) domain.Tree {
	out := domain.Tree{
		Categories: append([]domain.CategoryNode(nil), tree.Categories...),
		Accounts:   make([]domain.AccountNode, len(tree.Accounts)),
	}
	for i, a := range tree.Accounts {
		a.Lines = nil
		out.Accounts[i] = a
	}
	return out
}
