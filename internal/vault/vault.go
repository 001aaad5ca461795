package vault

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/insightdelivered/bookkeep/internal/models"
)

// DefaultCategories are created in every new store. Categories group
// candidate passwords so a caller can try just the relevant ones.
var DefaultCategories = []string{"common", "bank", "document"}

// Vault is a category-grouped store of candidate passwords. The store file
// is JSON; every password in it is sealed with the vault's key, so the file
// is useless without the key file next to it.
type Vault struct {
	storePath string
	keys      *keyring
	// category name to sealed entries, in insertion order.
	entries map[string][]string
}

type storeFile struct {
	Categories map[string][]string `json:"categories"`
}

// Create makes a new key file and an empty store with the default
// categories. It refuses to overwrite an existing key or store.
func Create(storePath, keyPath string) (*Vault, error) {
	if _, err := os.Stat(storePath); err == nil {
		return nil, fmt.Errorf("store %q already exists", storePath)
	}
	if err := WriteNewKey(keyPath); err != nil {
		return nil, err
	}
	keys, err := loadKey(keyPath)
	if err != nil {
		return nil, err
	}

	v := &Vault{storePath: storePath, keys: keys, entries: map[string][]string{}}
	for _, c := range DefaultCategories {
		v.entries[c] = []string{}
	}
	if err := v.save(); err != nil {
		return nil, err
	}
	return v, nil
}

// Open loads an existing store with its key file.
func Open(storePath, keyPath string) (*Vault, error) {
	keys, err := loadKey(keyPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(storePath)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	var sf storeFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing store: %w", err)
	}
	if sf.Categories == nil {
		sf.Categories = map[string][]string{}
	}
	return &Vault{storePath: storePath, keys: keys, entries: sf.Categories}, nil
}

// Add seals a password into a category, creating the category if needed.
func (v *Vault) Add(category, password string) error {
	if category == "" {
		return fmt.Errorf("category name is empty")
	}
	if password == "" {
		return fmt.Errorf("password is empty")
	}
	sealed, err := v.keys.seal([]byte(password))
	if err != nil {
		return err
	}
	v.entries[category] = append(v.entries[category], sealed)
	return v.save()
}

// Categories lists the store's categories, sorted.
func (v *Vault) Categories() []string {
	out := make([]string, 0, len(v.entries))
	for c := range v.entries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Count returns how many entries a category holds.
func (v *Vault) Count(category string) int {
	return len(v.entries[category])
}

// Passwords opens the entries of the named categories, in the order the
// categories were given and insertion order within each. No categories
// means all of them, sorted. Duplicates keep their first position. Any
// entry that fails to open fails the whole call.
func (v *Vault) Passwords(categories ...string) ([]string, error) {
	if len(categories) == 0 {
		categories = v.Categories()
	}

	var out []string
	seen := map[string]bool{}
	for _, c := range categories {
		sealed, ok := v.entries[c]
		if !ok {
			return nil, fmt.Errorf("no category %q in store", c)
		}
		for _, entry := range sealed {
			plaintext, err := v.keys.open(entry)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", c, err)
			}
			pw := string(plaintext)
			if seen[pw] {
				continue
			}
			seen[pw] = true
			out = append(out, pw)
		}
	}
	return out, nil
}

// Lookup adapts the vault to the candidate-password capability consumed by
// the unlock path. Open failures are logged and yield no candidates rather
// than panicking inside a caller that cannot handle errors.
func (v *Vault) Lookup() models.PasswordLookup {
	return func(categories ...string) []string {
		pws, err := v.Passwords(categories...)
		if err != nil {
			slog.Warn("password lookup failed", "error", err)
			return nil
		}
		return pws
	}
}

func (v *Vault) save() error {
	data, err := json.MarshalIndent(storeFile{Categories: v.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if err := os.WriteFile(v.storePath, data, 0o600); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	return nil
}
