package feeds

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zaqqye/realty_backend/internal/property"
)

// Site describes the storefront the feeds point at.
type Site struct {
	Title       string
	URL         string
	Description string
	Country     string
	Currency    string
}

func (s Site) currency() string {
	if s.Currency == "" {
		return "USD"
	}
	return s.Currency
}

func (s Site) country() string {
	if s.Country == "" {
		return "United States"
	}
	return s.Country
}

// Kinds served by the feed endpoints and CLI.
const (
	KindGoogle   = "google"
	KindFacebook = "facebook"
	KindPages    = "pages"
)

// ContentType returns the response type for a feed kind.
func ContentType(kind string) string {
	if kind == KindPages {
		return "text/tab-separated-values; charset=utf-8"
	}
	return "application/xml; charset=utf-8"
}

// Write renders kind to w.
func Write(w io.Writer, kind string, props []property.Property, site Site) error {
	switch kind {
	case KindGoogle:
		return GoogleRSS(w, props, site)
	case KindFacebook:
		return FacebookXML(w, props, site)
	case KindPages:
		return PageFeedTSV(w, props, site)
	default:
		return fmt.Errorf("feeds: unknown kind %q", kind)
	}
}

type googleRSS struct {
	XMLName xml.Name      `xml:"rss"`
	Version string        `xml:"version,attr"`
	NS      string        `xml:"xmlns:g,attr"`
	Channel googleChannel `xml:"channel"`
}

type googleChannel struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Description string       `xml:"description"`
	Items       []googleItem `xml:"item"`
}

type googleItem struct {
	ID           string `xml:"g:id"`
	Title        string `xml:"title"`
	Description  string `xml:"description"`
	Link         string `xml:"link"`
	ImageLink    string `xml:"g:image_link,omitempty"`
	Price        string `xml:"g:price"`
	Availability string `xml:"g:availability"`
	Condition    string `xml:"g:condition"`
	Brand        string `xml:"g:brand,omitempty"`
	ProductType  string `xml:"g:product_type,omitempty"`
	City         string `xml:"g:custom_label_0,omitempty"`
	PriceBand    string `xml:"g:custom_label_1,omitempty"`
}

// GoogleRSS writes a Merchant Center style RSS 2.0 feed.
func GoogleRSS(w io.Writer, props []property.Property, site Site) error {
	feed := googleRSS{
		Version: "2.0",
		NS:      "http://base.google.com/ns/1.0",
		Channel: googleChannel{Title: site.Title, Link: site.URL, Description: site.Description},
	}
	for _, p := range props {
		feed.Channel.Items = append(feed.Channel.Items, googleItem{
			ID:           p.MLSNumber,
			Title:        listingTitle(p),
			Description:  truncate(p.Description, 5000),
			Link:         p.URL,
			ImageLink:    p.PrimaryImage,
			Price:        fmt.Sprintf("%d %s", p.Price, site.currency()),
			Availability: "in stock",
			Condition:    "used",
			Brand:        site.Title,
			ProductType:  p.PropertyType,
			City:         p.City,
			PriceBand:    PriceBand(p.Price),
		})
	}
	return encodeXML(w, feed)
}

type fbListings struct {
	XMLName  xml.Name    `xml:"listings"`
	Title    string      `xml:"title"`
	Listings []fbListing `xml:"listing"`
}

type fbComponent struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type fbAddress struct {
	Format     string        `xml:"format,attr"`
	Components []fbComponent `xml:"component"`
}

type fbImage struct {
	URL string `xml:"url"`
}

type fbListing struct {
	ID           string    `xml:"home_listing_id"`
	Name         string    `xml:"name"`
	Availability string    `xml:"availability"`
	Description  string    `xml:"description,omitempty"`
	Address      fbAddress `xml:"address"`
	Latitude     *float64  `xml:"latitude,omitempty"`
	Longitude    *float64  `xml:"longitude,omitempty"`
	Neighborhood string    `xml:"neighborhood,omitempty"`
	Images       []fbImage `xml:"image"`
	ListingType  string    `xml:"listing_type"`
	NumBaths     string    `xml:"num_baths"`
	NumBeds      int       `xml:"num_beds"`
	NumUnits     int       `xml:"num_units"`
	Price        string    `xml:"price"`
	PropertyType string    `xml:"property_type"`
	URL          string    `xml:"url"`
	YearBuilt    string    `xml:"year_built,omitempty"`
}

// FacebookXML writes a home listings catalog feed.
func FacebookXML(w io.Writer, props []property.Property, site Site) error {
	feed := fbListings{Title: site.Title}
	for _, p := range props {
		l := fbListing{
			ID:           p.MLSNumber,
			Name:         listingTitle(p),
			Availability: p.ListingType,
			Description:  truncate(p.Description, 5000),
			Address: fbAddress{Format: "simple", Components: []fbComponent{
				{Name: "addr1", Value: p.Street},
				{Name: "city", Value: p.City},
				{Name: "region", Value: p.State},
				{Name: "country", Value: site.country()},
				{Name: "postal_code", Value: p.Zip},
			}},
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			Neighborhood: p.Neighborhood,
			ListingType:  "for_sale_by_agent",
			NumBaths:     strconv.FormatFloat(p.Baths, 'f', -1, 64),
			NumBeds:      p.Beds,
			NumUnits:     1,
			Price:        fmt.Sprintf("%d %s", p.Price, site.currency()),
			PropertyType: facebookPropertyType(p.PropertyType),
			URL:          p.URL,
			YearBuilt:    p.YearBuilt,
		}
		if p.ListingType == "for_rent" {
			l.ListingType = "for_rent_by_agent"
		}
		for i, img := range p.Images {
			if i == 20 {
				break
			}
			l.Images = append(l.Images, fbImage{URL: img})
		}
		feed.Listings = append(feed.Listings, l)
	}
	return encodeXML(w, feed)
}

// PageFeedTSV writes a Google Ads page feed: one detail URL per row with custom labels.
func PageFeedTSV(w io.Writer, props []property.Property, _ Site) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("Page URL\tCustom label\n"); err != nil {
		return err
	}
	for _, p := range props {
		if p.URL == "" {
			continue
		}
		labels := []string{}
		if p.City != "" {
			labels = append(labels, slug(p.City))
		}
		if band := PriceBand(p.Price); band != "" {
			labels = append(labels, band)
		}
		if p.PropertyType != "" {
			labels = append(labels, slug(p.PropertyType))
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", tsvField(p.URL), tsvField(strings.Join(labels, ";"))); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// PriceBand buckets a price for ad-group targeting.
func PriceBand(price int64) string {
	switch {
	case price <= 0:
		return ""
	case price < 250_000:
		return "under_250k"
	case price < 500_000:
		return "250k_500k"
	case price < 1_000_000:
		return "500k_1m"
	default:
		return "over_1m"
	}
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Flush()
}

func listingTitle(p property.Property) string {
	parts := []string{}
	if p.Beds > 0 {
		parts = append(parts, fmt.Sprintf("%d bd", p.Beds))
	}
	if p.Baths > 0 {
		parts = append(parts, strconv.FormatFloat(p.Baths, 'f', -1, 64)+" ba")
	}
	title := p.Street
	if title == "" {
		title = p.Address
	}
	if p.City != "" {
		title += ", " + p.City
	}
	if len(parts) > 0 {
		title += " · " + strings.Join(parts, " ")
	}
	return truncate(title, 150)
}

func facebookPropertyType(t string) string {
	lt := strings.ToLower(t)
	switch {
	case strings.Contains(lt, "condo"), strings.Contains(lt, "apartment"):
		return "condo"
	case strings.Contains(lt, "town"), strings.Contains(lt, "row"):
		return "townhouse"
	case strings.Contains(lt, "detached"), strings.Contains(lt, "house"), strings.Contains(lt, "single"):
		return "house"
	case strings.Contains(lt, "land"), strings.Contains(lt, "lot"):
		return "land"
	default:
		return "other"
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('_')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
