package etl

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"example.com/advocacy-etl/internal/domain"
)

// AccountResolver deduplicates accounts by normalized email within one run.
// It is owned by a single pipeline instance and never shared across runs;
// cross-run deduplication happens at load time via the unique-email upsert.
type AccountResolver struct {
	accounts map[string]*domain.Account
	created  int
}

func NewAccountResolver() *AccountResolver {
	return &AccountResolver{accounts: make(map[string]*domain.Account)}
}

// Resolve returns the account for an email, creating and caching one on
// first sight. Lookup is case-insensitive. Never fails.
func (r *AccountResolver) Resolve(email string) *domain.Account {
	key := strings.ToLower(email)
	if account, ok := r.accounts[key]; ok {
		return account
	}
	account := domain.NewAccount(key)
	r.accounts[key] = account
	r.created++
	return account
}

// ResolvePlaceholder creates an account with a synthetic, globally unique
// email for participants that lack one. A participant is never dropped just
// for having no email.
func (r *AccountResolver) ResolvePlaceholder() *domain.Account {
	return r.Resolve(fmt.Sprintf("noemail_%s@placeholder.local", uuid.New()))
}

// Created reports how many accounts this run has minted.
func (r *AccountResolver) Created() int { return r.created }
