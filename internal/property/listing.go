// Package property reshapes raw Repliers listings into the flat view model the site renders.
package property

import "encoding/json"

// Listing mirrors the subset of the Repliers listing payload the site uses.
type Listing struct {
	MLSNumber    string     `json:"mlsNumber"`
	Status       string     `json:"status"`
	LastStatus   string     `json:"lastStatus"`
	Class        string     `json:"class"`
	Type         string     `json:"type"`
	ListPrice    FlexNumber `json:"listPrice"`
	SoldPrice    FlexNumber `json:"soldPrice"`
	ListDate     string     `json:"listDate"`
	DaysOnMarket FlexNumber `json:"daysOnMarket"`
	Address      Address    `json:"address"`
	Details      Details    `json:"details"`
	Map          MapPoint   `json:"map"`
	Images       []string   `json:"images"`
	Lot          Lot        `json:"lot"`
	Taxes        Taxes      `json:"taxes"`
	Office       Office     `json:"office"`
}

type Address struct {
	UnitNumber      FlexString `json:"unitNumber"`
	StreetNumber    FlexString `json:"streetNumber"`
	StreetDirection string     `json:"streetDirection"`
	StreetName      string     `json:"streetName"`
	StreetSuffix    string     `json:"streetSuffix"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Zip             FlexString `json:"zip"`
	Neighborhood    string     `json:"neighborhood"`
	Area            string     `json:"area"`
}

type Details struct {
	NumBedrooms      FlexNumber `json:"numBedrooms"`
	NumBedroomsPlus  FlexNumber `json:"numBedroomsPlus"`
	NumBathrooms     FlexNumber `json:"numBathrooms"`
	NumBathroomsPlus FlexNumber `json:"numBathroomsPlus"`
	Sqft             FlexString `json:"sqft"`
	PropertyType     string     `json:"propertyType"`
	Style            string     `json:"style"`
	YearBuilt        FlexString `json:"yearBuilt"`
	Description      string     `json:"description"`
	NumGarageSpaces  FlexNumber `json:"numGarageSpaces"`
	NumParkingSpaces FlexNumber `json:"numParkingSpaces"`
}

type MapPoint struct {
	Latitude  FlexNumber `json:"latitude"`
	Longitude FlexNumber `json:"longitude"`
}

type Lot struct {
	Acres FlexNumber `json:"acres"`
	Size  FlexString `json:"size"`
}

type Taxes struct {
	AnnualAmount   FlexNumber `json:"annualAmount"`
	AssessmentYear FlexString `json:"assessmentYear"`
}

type Office struct {
	BrokerageName string `json:"brokerageName"`
}

// DecodeListing parses one raw listing object.
func DecodeListing(raw []byte) (Listing, error) {
	var l Listing
	err := json.Unmarshal(raw, &l)
	return l, err
}
