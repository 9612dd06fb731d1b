package property

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Property is the flat view model served to the site, feeds and emails.
type Property struct {
	ID             string   `json:"id"`
	MLSNumber      string   `json:"mls_number"`
	Status         string   `json:"status"`
	StatusLabel    string   `json:"status_label"`
	ListingType    string   `json:"listing_type"`
	Price          int64    `json:"price"`
	PriceFormatted string   `json:"price_formatted"`
	SoldPrice      *int64   `json:"sold_price,omitempty"`
	PricePerSqft   *int     `json:"price_per_sqft,omitempty"`
	Address        string   `json:"address"`
	Street         string   `json:"street"`
	Unit           string   `json:"unit,omitempty"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Zip            string   `json:"zip"`
	Neighborhood   string   `json:"neighborhood,omitempty"`
	Beds           int      `json:"beds"`
	BedsPlus       int      `json:"beds_plus,omitempty"`
	Baths          float64  `json:"baths"`
	Sqft           int      `json:"sqft"`
	PropertyType   string   `json:"property_type"`
	Class          string   `json:"class,omitempty"`
	Style          string   `json:"style,omitempty"`
	YearBuilt      string   `json:"year_built,omitempty"`
	Description    string   `json:"description"`
	GarageSpaces   int      `json:"garage_spaces"`
	LotAcres       *float64 `json:"lot_acres,omitempty"`
	AnnualTaxes    *int64   `json:"annual_taxes,omitempty"`
	Images         []string `json:"images"`
	PrimaryImage   string   `json:"primary_image"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	ListDate       string   `json:"list_date,omitempty"`
	DaysOnMarket   int      `json:"days_on_market"`
	Brokerage      string   `json:"brokerage,omitempty"`
	URL            string   `json:"url"`
}

// Options carries the URLs used to build absolute image and detail links.
type Options struct {
	CDNBase string
	SiteURL string
}

var printer = message.NewPrinter(language.English)

// FormatCurrency renders whole dollars with thousands separators: 1250000 -> "$1,250,000".
func FormatCurrency(amount int64) string {
	if amount < 0 {
		return "-" + printer.Sprintf("$%d", -amount)
	}
	return printer.Sprintf("$%d", amount)
}

// PricePerSqft is nil unless both price and sqft are positive.
func PricePerSqft(price int64, sqft int) *int {
	if sqft <= 0 || price <= 0 {
		return nil
	}
	v := int(math.Round(float64(price) / float64(sqft)))
	return &v
}

var firstNumber = regexp.MustCompile(`\d[\d,]*`)

// ParseSqft reads the lower bound of MLS square footage ("1500-1999", "2,100", "< 700").
func ParseSqft(s string) int {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// StreetLine joins the street parts, prefixing the unit as "unit-number".
func StreetLine(a Address) string {
	number := a.StreetNumber.String()
	if unit := a.UnitNumber.String(); unit != "" && number != "" {
		number = unit + "-" + number
	}
	return joinNonEmpty(" ", number, a.StreetDirection, a.StreetName, a.StreetSuffix)
}

// FullAddress is "street, city, state zip" with blank parts skipped.
func FullAddress(a Address) string {
	return joinNonEmpty(", ", StreetLine(a), a.City, joinNonEmpty(" ", a.State, a.Zip.String()))
}

// StatusLabel turns Repliers status/lastStatus codes into display text.
func StatusLabel(status, lastStatus string) string {
	if strings.EqualFold(status, "A") {
		return "Active"
	}
	switch strings.ToLower(lastStatus) {
	case "sld":
		return "Sold"
	case "lsd":
		return "Leased"
	case "sc", "pc", "lc":
		return "Pending"
	case "exp":
		return "Expired"
	case "ter":
		return "Terminated"
	case "sus":
		return "Suspended"
	}
	if strings.EqualFold(status, "U") {
		return "Off Market"
	}
	return ""
}

// Normalize builds the view model. Missing values fall back to zero values or nil.
func Normalize(l Listing, opts Options) Property {
	price := int64(math.Round(l.ListPrice.Value))
	sqft := ParseSqft(l.Details.Sqft.String())

	p := Property{
		ID:             l.MLSNumber,
		MLSNumber:      l.MLSNumber,
		Status:         strings.ToUpper(l.Status),
		StatusLabel:    StatusLabel(l.Status, l.LastStatus),
		ListingType:    listingType(l.Type),
		Price:          price,
		PriceFormatted: FormatCurrency(price),
		PricePerSqft:   PricePerSqft(price, sqft),
		Address:        FullAddress(l.Address),
		Street:         StreetLine(l.Address),
		Unit:           l.Address.UnitNumber.String(),
		City:           l.Address.City,
		State:          l.Address.State,
		Zip:            l.Address.Zip.String(),
		Neighborhood:   firstNonEmpty(l.Address.Neighborhood, l.Address.Area),
		Beds:           l.Details.NumBedrooms.Int(),
		BedsPlus:       l.Details.NumBedroomsPlus.Int(),
		Baths:          l.Details.NumBathrooms.Value + 0.5*l.Details.NumBathroomsPlus.Value,
		Sqft:           sqft,
		PropertyType:   l.Details.PropertyType,
		Class:          l.Class,
		Style:          l.Details.Style,
		YearBuilt:      l.Details.YearBuilt.String(),
		Description:    strings.TrimSpace(l.Details.Description),
		GarageSpaces:   l.Details.NumGarageSpaces.Int(),
		ListDate:       l.ListDate,
		DaysOnMarket:   l.DaysOnMarket.Int(),
		Brokerage:      l.Office.BrokerageName,
		Images:         imageURLs(l.Images, opts.CDNBase),
	}
	if l.SoldPrice.Valid && l.SoldPrice.Value > 0 {
		v := int64(math.Round(l.SoldPrice.Value))
		p.SoldPrice = &v
	}
	if l.Lot.Acres.Valid && l.Lot.Acres.Value > 0 {
		v := l.Lot.Acres.Value
		p.LotAcres = &v
	}
	if l.Taxes.AnnualAmount.Valid && l.Taxes.AnnualAmount.Value > 0 {
		v := int64(math.Round(l.Taxes.AnnualAmount.Value))
		p.AnnualTaxes = &v
	}
	if l.Map.Latitude.Valid && l.Map.Longitude.Valid {
		lat, lng := l.Map.Latitude.Value, l.Map.Longitude.Value
		p.Latitude, p.Longitude = &lat, &lng
	}
	if len(p.Images) > 0 {
		p.PrimaryImage = p.Images[0]
	}
	if opts.SiteURL != "" && l.MLSNumber != "" {
		p.URL = strings.TrimRight(opts.SiteURL, "/") + "/property/" + l.MLSNumber
	}
	return p
}

// NormalizeJSON decodes and normalizes one raw listing.
func NormalizeJSON(raw []byte, opts Options) (Property, error) {
	l, err := DecodeListing(raw)
	if err != nil {
		return Property{}, err
	}
	return Normalize(l, opts), nil
}

// NormalizeAll normalizes a page of raw listings, skipping entries that do not decode.
func NormalizeAll(raws []json.RawMessage, opts Options) []Property {
	out := make([]Property, 0, len(raws))
	for _, raw := range raws {
		p, err := NormalizeJSON(raw, opts)
		if err != nil || p.MLSNumber == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func listingType(t string) string {
	switch strings.ToLower(t) {
	case "lease", "rent":
		return "for_rent"
	default:
		return "for_sale"
	}
}

func imageURLs(paths []string, cdn string) []string {
	out := make([]string, 0, len(paths))
	cdn = strings.TrimRight(cdn, "/")
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || cdn == "" {
			out = append(out, p)
			continue
		}
		out = append(out, cdn+"/"+strings.TrimLeft(p, "/"))
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
