package wire

import "fmt"

// SymbologyID identifies a barcode symbology.
type SymbologyID uint16

const (
	SymbologyNotSpecified SymbologyID = iota
	SymbologyAustraliaPost
	SymbologyAztec
	SymbologyBooklandEan
	SymbologyBritishPost
	SymbologyCanadaPost
	SymbologyChinese2of5
	SymbologyCodabar
	SymbologyCodablockA
	SymbologyCodablockF
	SymbologyCode11
	SymbologyCode39
	SymbologyCode39Extended
	SymbologyCode39Trioptic
	SymbologyCode93
	SymbologyCode128
	SymbologyDataMatrix
	SymbologyDutchPost
	SymbologyEan8
	SymbologyEan13
	SymbologyEan128
	SymbologyGs1Databar
	SymbologyGs1DatabarLimited
	SymbologyGs1DatabarExpanded
	SymbologyInterleaved2of5
	SymbologyIsbtCode128
	SymbologyJapanPost
	SymbologyMatrix2of5
	SymbologyMaxicode
	SymbologyMsi
	SymbologyPdf417
	SymbologyPdf417Micro
	SymbologyPlanet
	SymbologyPlessey
	SymbologyPostnet
	SymbologyQRCode
	SymbologyStandard2of5
	SymbologyTelepen
	SymbologyTlc39
	SymbologyUpcA
	SymbologyUpcE0
	SymbologyUpcE1
	SymbologyUspsIntelligentMail
	SymbologyDirectPartMarking
	SymbologyHanXin

	// SymbologyCount is the size of a scanner's symbology table.
	SymbologyCount
)

var symbologyNames = [SymbologyCount]string{
	"Not Specified", "Australia Post", "Aztec", "Bookland EAN", "British Post",
	"Canada Post", "Chinese 2 of 5", "Codabar", "Codablock A", "Codablock F",
	"Code 11", "Code 39", "Code 39 Extended", "Code 39 Trioptic", "Code 93",
	"Code 128", "Data Matrix", "Dutch Post", "EAN 8", "EAN 13",
	"EAN 128", "GS1 Databar", "GS1 Databar Limited", "GS1 Databar Expanded", "Interleaved 2 of 5",
	"ISBT Code 128", "Japan Post", "Matrix 2 of 5", "Maxicode", "MSI",
	"PDF 417", "Micro PDF 417", "Planet", "Plessey", "Postnet",
	"QR Code", "Standard 2 of 5", "Telepen", "TLC 39", "UPC A",
	"UPC E0", "UPC E1", "USPS Intelligent Mail", "Direct Part Marking", "Han Xin",
}

// String returns the display name.
func (s SymbologyID) String() string {
	if s < SymbologyCount {
		return symbologyNames[s]
	}
	return fmt.Sprintf("Symbology(%d)", uint16(s))
}

// IsValid returns true for IDs inside the symbology table.
func (s SymbologyID) IsValid() bool {
	return s < SymbologyCount
}

// SymbologyStatus is the enable state of one symbology on a scanner.
type SymbologyStatus uint8

const (
	SymbologyDisabled     SymbologyStatus = 0
	SymbologyEnabled      SymbologyStatus = 1
	SymbologyNotSupported SymbologyStatus = 2
)

// String returns the status name.
func (s SymbologyStatus) String() string {
	switch s {
	case SymbologyDisabled:
		return "disabled"
	case SymbologyEnabled:
		return "enabled"
	case SymbologyNotSupported:
		return "not supported"
	default:
		return "unknown"
	}
}

// Symbology is the payload of PropDeviceSymbology.
type Symbology struct {
	ID     SymbologyID     `cbor:"1,keyasint"`
	Status SymbologyStatus `cbor:"2,keyasint"`
	Name   string          `cbor:"3,keyasint,omitempty"`
}
