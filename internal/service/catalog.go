package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/kanto/showledger/internal/database"
	"github.com/kanto/showledger/internal/database/repository"
)

// cardNumberRe pulls card numbers like "op13-118" or "op 14 070" out of a
// lowercased product name.
var cardNumberRe = regexp.MustCompile(`op[-\s]?\d{1,2}[-\s]?\d{3}`)

// importantWords are name fragments worth keeping as standalone keywords.
var importantWords = []string{
	"mega", "ex", "premium", "elite", "booster", "parallel",
	"charizard", "pikachu", "luffy", "ace", "zoro",
}

// CatalogService maintains the master catalog, deduplicating entries by
// normalized image reference and by exact name.
type CatalogService struct {
	DB *sql.DB
}

// CatalogAddResult is the outcome of one catalog insertion, including any
// near-duplicate hints for entries that were admitted anyway.
type CatalogAddResult struct {
	Item     repository.CatalogItem
	NearDups []string
}

// StripQueryParams removes everything from the first '?' onward. Hosted image
// URLs carry volatile sizing params, so the stripped form is the stable
// identity of the underlying asset.
func StripQueryParams(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// NameFromRef derives a display name from an image reference: last path
// segment, percent-decoded, extension dropped, "_s" restored to an
// apostrophe and remaining underscores to spaces.
func NameFromRef(ref string) string {
	segment := ref
	if i := strings.LastIndexByte(segment, '/'); i >= 0 {
		segment = segment[i+1:]
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	if i := strings.LastIndexByte(segment, '.'); i > 0 {
		segment = segment[:i]
	}
	segment = strings.ReplaceAll(segment, "_s", "'s")
	segment = strings.ReplaceAll(segment, "_", " ")
	return strings.TrimSpace(segment)
}

// CategorizeProduct buckets a product name into a category. Order matters:
// "Booster Bundle" must win before the "Booster Box" and bare "box" checks
// fire.
func CategorizeProduct(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "ultra premium") || strings.Contains(lower, "upc"):
		return "UPC"
	case strings.Contains(lower, "elite trainer box") || strings.Contains(lower, "etb"):
		return "ETB"
	case strings.Contains(lower, "booster bundle"):
		return "Booster Bundle"
	case strings.Contains(lower, "booster box"):
		return "Booster Box"
	case strings.Contains(lower, "premium collection") || strings.Contains(lower, "premium figure"):
		return "Premium Collection"
	case strings.Contains(lower, "blister"):
		return "3 Pack Blister"
	case strings.Contains(lower, "tin"):
		return "Tin"
	case strings.Contains(name, "(") && strings.Contains(name, ")"):
		// Card numbers like "(118)" mark single cards.
		return "Singles"
	case strings.Contains(lower, "sleeved") || strings.Contains(lower, "pack"):
		return "Sleeved Packs"
	case strings.Contains(lower, "box"):
		return "Box"
	default:
		return "Other"
	}
}

// GenerateKeywords derives up to five search keywords from a product name:
// the full lowercased name, card numbers with hyphen variants, notable name
// fragments and product-type aliases.
func GenerateKeywords(name string) []string {
	lower := strings.ToLower(name)
	seen := map[string]struct{}{}
	var keywords []string
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	add(lower)
	for _, num := range cardNumberRe.FindAllString(lower, -1) {
		add(num)
		add(strings.ReplaceAll(num, "-", ""))
		add(strings.ReplaceAll(num, "-", " "))
	}
	for _, word := range importantWords {
		if strings.Contains(lower, word) {
			add(word)
		}
	}
	if strings.Contains(lower, "etb") || strings.Contains(lower, "elite trainer box") {
		add("elite trainer box")
		add("etb")
	}
	if strings.Contains(lower, "booster bundle") {
		add("booster bundle")
	}
	if strings.Contains(lower, "ultra premium") {
		add("ultra premium")
		add("upc")
	}

	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}

// Add inserts one catalog entry from its image URL. The same underlying image
// (query params ignored) or the same exact name is a ConflictError. Name,
// category and keywords may be supplied; anything blank is derived from the
// reference.
func (s *CatalogService) Add(ctx context.Context, imageURL, name, category string, keywords []string) (CatalogAddResult, error) {
	if strings.TrimSpace(imageURL) == "" {
		return CatalogAddResult{}, validationf("image url required")
	}
	ref := StripQueryParams(strings.TrimSpace(imageURL))
	if name == "" {
		name = NameFromRef(ref)
	}
	if name == "" {
		return CatalogAddResult{}, validationf("could not derive a name from %q", ref)
	}
	if category == "" {
		category = CategorizeProduct(name)
	}
	if len(keywords) == 0 {
		keywords = GenerateKeywords(name)
	}

	filename := ref
	if i := strings.LastIndexByte(filename, '/'); i >= 0 {
		filename = filename[i+1:]
	}

	item := repository.CatalogItem{
		ID:            uuid.NewString(),
		Name:          name,
		Category:      category,
		ImageURL:      strings.TrimSpace(imageURL),
		ImageRef:      ref,
		ImageFilename: filename,
		Keywords:      keywords,
	}

	var res CatalogAddResult
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewCatalogRepo(tx)
		byRef, err := repo.FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		if byRef != nil {
			return &ConflictError{
				Entity: "catalog item",
				ID:     byRef.ID,
				Msg:    fmt.Sprintf("image already cataloged as %q (id %s)", byRef.Name, byRef.ID),
			}
		}
		byName, err := repo.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if byName != nil {
			return &ConflictError{
				Entity: "catalog item",
				ID:     byName.ID,
				Msg:    fmt.Sprintf("name %q already cataloged (id %s)", name, byName.ID),
			}
		}

		existing, err := repo.List(ctx)
		if err != nil {
			return err
		}
		res = CatalogAddResult{Item: item, NearDups: nearDuplicates(name, existing)}
		return repo.Insert(ctx, item)
	})
	if err != nil {
		return CatalogAddResult{}, err
	}
	return res, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*repository.CatalogItem, error) {
	return repository.NewCatalogRepo(s.DB).Get(ctx, id)
}

func (s *CatalogService) List(ctx context.Context) ([]repository.CatalogItem, error) {
	return repository.NewCatalogRepo(s.DB).List(ctx)
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		repo := repository.NewCatalogRepo(tx)
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return &NotFoundError{Entity: "catalog item", ID: id}
		}
		return repo.Delete(ctx, id)
	})
}

// nearDuplicates flags existing entries whose normalized names sit within 40%
// edit distance of the candidate. These are hints only; the entry is still
// admitted.
func nearDuplicates(name string, existing []repository.CatalogItem) []string {
	candidate := NormalizeItemName(name)
	var hints []string
	for _, item := range existing {
		other := NormalizeItemName(item.Name)
		longest := len(candidate)
		if len(other) > longest {
			longest = len(other)
		}
		if longest == 0 {
			continue
		}
		d := levenshtein.ComputeDistance(candidate, other)
		if float64(d)/float64(longest) < 0.4 {
			hints = append(hints, item.Name)
		}
	}
	return hints
}
