package identity

import (
	"sort"
	"strings"

	"HeroChatAI/app/errs"
)

// AliasSet holds the distinct uppercase name variants of a character.
type AliasSet map[string]struct{}

func NewAliasSet(names ...string) AliasSet {
	set := make(AliasSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (a AliasSet) Contains(name string) bool {
	_, ok := a[name]
	return ok
}

// Names returns the aliases sorted, so rendering them is deterministic.
func (a AliasSet) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a AliasSet) String() string {
	return strings.Join(a.Names(), ", ")
}

// Resolver maps a character to its alias set using the configured synonyms.
// Only the first synonym of each character is used.
type Resolver struct {
	synonyms map[string][]string
}

func NewResolver(synonyms map[string][]string) *Resolver {
	cp := make(map[string][]string, len(synonyms))
	for name, syns := range synonyms {
		cp[name] = append([]string(nil), syns...)
	}
	return &Resolver{synonyms: cp}
}

func (r *Resolver) Resolve(character string) (AliasSet, error) {
	syns, ok := r.synonyms[character]
	if !ok {
		return nil, errs.New(errs.ErrConfiguration, "identity.Resolve", "no synonyms configured for character %q", character)
	}
	if len(syns) == 0 {
		return nil, errs.New(errs.ErrConfiguration, "identity.Resolve", "empty synonym list for character %q", character)
	}

	synonym := syns[0]
	return NewAliasSet(
		strings.ToUpper(character),
		strings.ToUpper(synonym),
		strings.ToUpper(strings.ReplaceAll(synonym, " ", "-")),
	), nil
}
