package collections

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/pocketbase/pocketbase/core"
)

// deriveReference builds an invoice-number reference from an agency name:
// the initials of its words, or the first letters when there is one word.
func deriveReference(name string) string {
	var initials, letters strings.Builder
	for _, word := range strings.Fields(name) {
		first := true
		for _, r := range word {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				continue
			}
			r = unicode.ToUpper(r)
			if r > unicode.MaxASCII {
				continue
			}
			if first {
				initials.WriteRune(r)
				first = false
			}
			letters.WriteRune(r)
		}
	}

	ref := initials.String()
	if len(ref) < 2 {
		ref = letters.String()
	}
	if len(ref) > 6 {
		ref = ref[:6]
	}
	if len(ref) < 2 {
		ref = "AG"
	}
	return ref
}

// MigrateMissingAgencyReferences gives every agency without a reference
// one derived from its name, unique among agencies.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigrateMissingAgencyReferences(app core.App) error {
	agencies, err := app.FindAllRecords("agencies")
	if err != nil {
		return fmt.Errorf("migrate: could not query agencies: %w", err)
	}

	taken := make(map[string]bool, len(agencies))
	var missing []*core.Record
	for _, a := range agencies {
		ref := a.GetString("reference")
		if ref == "" {
			missing = append(missing, a)
			continue
		}
		taken[ref] = true
	}
	if len(missing) == 0 {
		return nil
	}

	log.Printf("migrate: found %d agenc(ies) without a reference -- deriving...\n", len(missing))

	for _, a := range missing {
		base := deriveReference(a.GetString("name"))
		ref := base
		for n := 2; taken[ref]; n++ {
			ref = fmt.Sprintf("%s%d", base, n)
		}

		a.Set("reference", ref)
		if err := app.Save(a); err != nil {
			log.Printf("migrate: failed to set reference for agency %s: %v\n", a.Id, err)
			continue
		}
		taken[ref] = true
		log.Printf("migrate: agency %q -> reference %s\n", a.GetString("name"), ref)
	}
	return nil
}
