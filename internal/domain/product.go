package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Offer is either HasVariants or Simple.
type Offer interface {
	isOffer()
}

type Variant struct {
	Color           string
	Dimensions      string
	Price           decimal.Decimal
	OriginalPrice   decimal.Decimal
	DiscountPercent int
	Stock           int
	Images          []string
}

type HasVariants struct {
	Variants []Variant
}

type Simple struct {
	Price           decimal.Decimal
	OriginalPrice   decimal.Decimal
	DiscountPercent int
	Stock           int
}

func (HasVariants) isOffer() {}
func (Simple) isOffer()      {}

type Product struct {
	ID     string
	Name   string
	Images []string
	Offer  Offer
}

// Purchasable is a product narrowed down to one stock-keeping unit.
type Purchasable struct {
	ProductID       string
	Name            string
	Variant         *VariantSelector
	Price           decimal.Decimal
	OriginalPrice   decimal.Decimal
	DiscountPercent int
	Stock           int
	ImageURL        string
}

// Resolve picks the unit described by sel. A nil selector on a variant product
// picks the first variant. ok is false when nothing matches.
func (p Product) Resolve(sel *VariantSelector) (Purchasable, bool) {
	switch o := p.Offer.(type) {
	case HasVariants:
		v, ok := o.find(sel)
		if !ok {
			return Purchasable{}, false
		}
		image := firstOf(v.Images)
		if image == "" {
			image = firstOf(p.Images)
		}
		return Purchasable{
			ProductID:       p.ID,
			Name:            p.Name,
			Variant:         &VariantSelector{Color: v.Color, Dimensions: v.Dimensions},
			Price:           v.Price,
			OriginalPrice:   v.OriginalPrice,
			DiscountPercent: v.DiscountPercent,
			Stock:           v.Stock,
			ImageURL:        image,
		}, true
	case Simple:
		return Purchasable{
			ProductID:       p.ID,
			Name:            p.Name,
			Price:           o.Price,
			OriginalPrice:   o.OriginalPrice,
			DiscountPercent: o.DiscountPercent,
			Stock:           o.Stock,
			ImageURL:        firstOf(p.Images),
		}, true
	default:
		return Purchasable{}, false
	}
}

func (o HasVariants) find(sel *VariantSelector) (Variant, bool) {
	if len(o.Variants) == 0 {
		return Variant{}, false
	}
	if sel == nil {
		return o.Variants[0], true
	}
	for _, v := range o.Variants {
		if strings.EqualFold(v.Color, sel.Color) && v.Dimensions == sel.Dimensions {
			return v, true
		}
	}
	return Variant{}, false
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
