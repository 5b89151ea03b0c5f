package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"punctuation only", "¿?¡!.,;", ""},
		{"lowercases", "Diabetes Mellitus", "diabetes mellitus"},
		{"collapses whitespace", "Diabetes   Mellitus\t tipo  2", "diabetes mellitus tipo 2"},
		{"keeps accents", "Neumonía CARDÍACA", "neumonía cardíaca"},
		{"keeps ñ and ü", "Niño pingüino", "niño pingüino"},
		{"code punctuation", "E11.9 Diabetes", "e11 9 diabetes"},
		{"keeps underscore", "a_b", "a_b"},
		{"trims", "  sepsis (E. coli)  ", "sepsis e coli"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestNormalize_CaseAndSpacingInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("diabetes mellitus"), Normalize("Diabetes   Mellitus"))
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "Infarto agudo de miocardio, pared ANTERIOR (I21.0)"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens(""))
	assert.Equal(t, []string{"diabetes", "tipo", "2"}, Tokens("diabetes tipo 2"))
}

func TestNGrams(t *testing.T) {
	got := NGrams([]string{"a", "b", "c"}, 1, 3)
	assert.Equal(t, []string{"a", "a b", "a b c", "b", "b c", "c"}, got)

	assert.Equal(t, []string{"a b", "b c"}, NGrams([]string{"a", "b", "c"}, 2, 2))
	assert.Nil(t, NGrams(nil, 1, 3))
	assert.Nil(t, NGrams([]string{"a"}, 0, 3))
	assert.Nil(t, NGrams([]string{"a"}, 3, 1))
}
