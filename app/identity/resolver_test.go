package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HeroChatAI/app/errs"
)

var synonyms = map[string][]string{
	"Batman":    {"Dark Knight", "Caped Crusader"},
	"Superman":  {"Man of Steel"},
	"Flash":     {"flash"},
	"Spiderman": {"Spider Man"},
	"Robin":     {},
}

func TestResolve(t *testing.T) {
	r := NewResolver(synonyms)

	cases := []struct {
		name      string
		character string
		want      []string
	}{
		{"three_variants", "Batman", []string{"BATMAN", "DARK KNIGHT", "DARK-KNIGHT"}},
		{"multi_word_synonym", "Superman", []string{"MAN OF STEEL", "MAN-OF-STEEL", "SUPERMAN"}},
		{"synonym_equals_name", "Flash", []string{"FLASH"}},
		{"hyphen_collapses_into_name", "Spiderman", []string{"SPIDER MAN", "SPIDER-MAN", "SPIDERMAN"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := r.Resolve(tc.character)
			require.NoError(t, err)
			assert.Equal(t, tc.want, set.Names())
			assert.GreaterOrEqual(t, len(set), 1)
			assert.LessOrEqual(t, len(set), 3)
			for _, n := range set.Names() {
				assert.Equal(t, strings.ToUpper(n), n)
			}
		})
	}
}

func TestResolveIgnoresLaterSynonyms(t *testing.T) {
	set, err := NewResolver(synonyms).Resolve("Batman")
	require.NoError(t, err)
	assert.False(t, set.Contains("CAPED CRUSADER"))
}

func TestResolveConfigurationErrors(t *testing.T) {
	r := NewResolver(synonyms)

	_, err := r.Resolve("Aquaman2")
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = r.Resolve("Robin")
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = r.Resolve("batman")
	assert.ErrorIs(t, err, errs.ErrConfiguration, "lookup is case sensitive")
}

func TestResolverCopiesConfiguration(t *testing.T) {
	src := map[string][]string{"Batman": {"Dark Knight"}}
	r := NewResolver(src)
	src["Batman"][0] = "Bat"

	set, err := r.Resolve("Batman")
	require.NoError(t, err)
	assert.True(t, set.Contains("DARK KNIGHT"))
}

func TestAliasSetString(t *testing.T) {
	assert.Equal(t, "BATMAN, DARK KNIGHT, DARK-KNIGHT", NewAliasSet("DARK-KNIGHT", "BATMAN", "DARK KNIGHT", "BATMAN").String())
}
