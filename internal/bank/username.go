package bank

import (
	"strings"
	"unicode/utf8"
)

// DeriveUsername builds the login handle from an owner's full name: the
// lowercased first letter of every word, concatenated. A blank name yields "".
func DeriveUsername(owner string) string {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ToLower(owner)) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return b.String()
}

// AssignUsernames sets Username on every account from its Owner.
func AssignUsernames(accounts []Account) {
	for i := range accounts {
		accounts[i].Username = DeriveUsername(accounts[i].Owner)
	}
}
