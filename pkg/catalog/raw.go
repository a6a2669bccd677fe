package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawCountry mirrors one entry of the restcountries v3.1 payload.
// Only the fields the catalog uses are decoded.
type RawCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Flags struct {
		SVG string `json:"svg"`
		PNG string `json:"png"`
	} `json:"flags"`
	Capital      []string                  `json:"capital"`
	Population   int64                     `json:"population"`
	Region       string                    `json:"region"`
	Subregion    string                    `json:"subregion"`
	Languages    Ordered[string]           `json:"languages"`
	Currencies   Ordered[RawCurrency]      `json:"currencies"`
	Translations map[string]RawTranslation `json:"translations"`
}

// RawCurrency is the value side of the "currencies" object.
type RawCurrency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// RawTranslation is the value side of the "translations" object.
type RawTranslation struct {
	Official string `json:"official"`
	Common   string `json:"common"`
}

// Pair is a single key/value of a JSON object, kept in document order.
type Pair[V any] struct {
	Key   string
	Value V
}

// Ordered decodes a JSON object into its pairs in source order.
// encoding/json maps drop key order, and languages and currencies are
// displayed in the order the source lists them.
type Ordered[V any] []Pair[V]

// UnmarshalJSON implements json.Unmarshaler.
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	var out Ordered[V]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		out = append(out, Pair[V]{Key: key, Value: v})
	}
	*o = out
	return nil
}

// Values returns the values in source order.
func (o Ordered[V]) Values() []V {
	if len(o) == 0 {
		return nil
	}
	out := make([]V, len(o))
	for i, p := range o {
		out[i] = p.Value
	}
	return out
}

// Normalize converts raw source entries into catalog records. Entries without
// a common name are dropped. translation selects the key of the translations
// object used for LocalizedName ("spa", "fra", ...); empty disables it.
func Normalize(raw []RawCountry, translation string) []Country {
	out := make([]Country, 0, len(raw))
	for _, r := range raw {
		common := strings.TrimSpace(r.Name.Common)
		if common == "" {
			continue
		}

		c := Country{
			CommonName:   common,
			OfficialName: strings.TrimSpace(r.Name.Official),
			FlagURL:      r.Flags.SVG,
			Population:   r.Population,
			Region:       strings.TrimSpace(r.Region),
			Subregion:    strings.TrimSpace(r.Subregion),
			Languages:    r.Languages.Values(),
		}
		if c.FlagURL == "" {
			c.FlagURL = r.Flags.PNG
		}
		if c.Population < 0 {
			c.Population = 0
		}
		if len(r.Capital) > 0 {
			c.Capital = strings.TrimSpace(r.Capital[0])
		}
		if translation != "" {
			if t, ok := r.Translations[translation]; ok {
				c.LocalizedName = strings.TrimSpace(t.Common)
			}
		}
		for _, cur := range r.Currencies.Values() {
			c.Currencies = append(c.Currencies, Currency{Name: cur.Name, Symbol: cur.Symbol})
		}
		out = append(out, c)
	}
	return out
}
