package product

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

// LegacyRecord is a product document exported from the old storefront. Field names vary between
// records (name/productName, image/productImage/productImages, price/oldPrice).
type LegacyRecord map[string]any

// FromLegacy maps a legacy record onto the canonical schema. The returned product has no ID or
// slug yet and is already repriced.
func FromLegacy(rec LegacyRecord) (Product, error) {
	p := Product{
		Name:            rec.text("name", "productName"),
		Category:        rec.text("category"),
		Subcategory:     rec.text("subcategory", "subCategory"),
		Description:     rec.text("description"),
		Warranty:        rec.text("warranty"),
		YoutubeURL:      rec.text("youtubeURL", "youtubeUrl"),
		BannerImage:     rec.text("bannerImage"),
		MetaTitle:       rec.text("metaTitle"),
		MetaDescription: rec.text("metaDescription"),
		Features:        rec.list("features", "\n"),
		MetaKeywords:    rec.list("metaKeywords", ","),
		Images:          rec.images(),
		Status:          Status(rec.text("status")),
	}
	if !p.Status.Valid() {
		p.Status = StatusActive
	}

	base := rec.amount("oldPrice", "price")
	if !base.Valid || base.Decimal.IsNegative() {
		return Product{}, apperror.Validation("legacy record has no usable price", "oldPrice")
	}
	p.OldPrice = base.Decimal
	p.Discount = rec.amount("discount")

	if stock := rec.amount("stock"); stock.Valid {
		p.Stock = int(stock.Decimal.IntPart())
	}

	specs, err := rec.specs()
	if err != nil {
		return Product{}, err
	}
	p.Specs = specs

	if err := apperror.MissingFields(map[string]string{
		"name":     p.Name,
		"category": p.Category,
	}, "name", "category"); err != nil {
		return Product{}, err
	}

	if err := p.Reprice(); err != nil {
		return Product{}, fmt.Errorf("failed to price legacy record: %w", err)
	}
	return p, nil
}

// first returns the value of the first key present
func (r LegacyRecord) first(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r LegacyRecord) text(keys ...string) string {
	v, ok := r.first(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func (r LegacyRecord) amount(keys ...string) decimal.NullDecimal {
	v, ok := r.first(keys...)
	if !ok {
		return decimal.NullDecimal{}
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(t))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(t)))
	case json.Number:
		return pricing.ParseAmount(t.String())
	case string:
		return pricing.ParseAmount(t)
	default:
		return decimal.NullDecimal{}
	}
}

func (r LegacyRecord) list(key, sep string) []string {
	v, ok := r.first(key)
	if !ok {
		return []string{}
	}
	switch t := v.(type) {
	case string:
		if sep == "" {
			return splitTrim(t, "\x00")
		}
		return splitTrim(strings.ReplaceAll(t, "\r\n", "\n"), sep)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return []string{}
	}
}

func (r LegacyRecord) images() []string {
	if imgs := r.list("productImages", ""); len(imgs) > 0 {
		return imgs
	}
	if imgs := r.list("images", ""); len(imgs) > 0 {
		return imgs
	}
	if img := r.text("image", "productImage"); img != "" {
		return []string{img}
	}
	return []string{}
}

func (r LegacyRecord) specs() (Specs, error) {
	v, ok := r.first("specs")
	if !ok {
		return Specs{}, nil
	}
	switch t := v.(type) {
	case string:
		return ParseSpecs(t)
	case map[string]any:
		out := make(Specs, len(t))
		for k, val := range t {
			out[k] = fmt.Sprint(val)
		}
		return out, nil
	default:
		return nil, apperror.Validation("specs must be a JSON object of text values", "specs")
	}
}
