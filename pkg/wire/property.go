package wire

import (
	"errors"
	"fmt"
)

// ErrPropertyType is returned when a property is read as the wrong type.
var ErrPropertyType = errors.New("property type mismatch")

// PropertyID identifies a session or scanner property.
type PropertyID uint32

// Session-level properties. They are addressed with Handle 0.
const (
	PropCaptureAbort                PropertyID = 0x0001
	PropCaptureVersion              PropertyID = 0x0002
	PropCaptureDataConfirmationMode PropertyID = 0x0003
)

// Scanner properties.
const (
	PropDeviceFriendlyName        PropertyID = 0x0101
	PropDeviceBluetoothAddress    PropertyID = 0x0102
	PropDeviceType                PropertyID = 0x0103
	PropDeviceFirmwareVersion     PropertyID = 0x0104
	PropDeviceBatteryLevel        PropertyID = 0x0105
	PropDeviceStandConfig         PropertyID = 0x0106
	PropDeviceDecodeAction        PropertyID = 0x0107
	PropDeviceLocalAcknowledgment PropertyID = 0x0108
	PropDeviceDataConfirmation    PropertyID = 0x0109
	PropDeviceSymbology           PropertyID = 0x010A
	PropDeviceSpecific            PropertyID = 0x010B
	PropDeviceTimers              PropertyID = 0x010C
	PropDeviceDataStore           PropertyID = 0x010D
	PropDevicePostamble           PropertyID = 0x010E
)

var propertyNames = map[PropertyID]string{
	PropCaptureAbort:                "CaptureAbort",
	PropCaptureVersion:              "CaptureVersion",
	PropCaptureDataConfirmationMode: "CaptureDataConfirmationMode",
	PropDeviceFriendlyName:          "DeviceFriendlyName",
	PropDeviceBluetoothAddress:      "DeviceBluetoothAddress",
	PropDeviceType:                  "DeviceType",
	PropDeviceFirmwareVersion:       "DeviceFirmwareVersion",
	PropDeviceBatteryLevel:          "DeviceBatteryLevel",
	PropDeviceStandConfig:           "DeviceStandConfig",
	PropDeviceDecodeAction:          "DeviceDecodeAction",
	PropDeviceLocalAcknowledgment:   "DeviceLocalAcknowledgment",
	PropDeviceDataConfirmation:      "DeviceDataConfirmation",
	PropDeviceSymbology:             "DeviceSymbology",
	PropDeviceSpecific:              "DeviceSpecific",
	PropDeviceTimers:                "DeviceTimers",
	PropDeviceDataStore:             "DeviceDataStore",
	PropDevicePostamble:             "DevicePostamble",
}

// String returns the property name.
func (p PropertyID) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(0x%04X)", uint32(p))
}

// IsSessionProperty returns true for properties addressed to the session itself.
func (p PropertyID) IsSessionProperty() bool {
	return p < 0x0100
}

// PropertyType tags which value field of a Property is meaningful.
type PropertyType uint8

const (
	PropertyTypeNone      PropertyType = 0
	PropertyTypeByte      PropertyType = 1
	PropertyTypeUlong     PropertyType = 2
	PropertyTypeArray     PropertyType = 3
	PropertyTypeString    PropertyType = 4
	PropertyTypeVersion   PropertyType = 5
	PropertyTypeSymbology PropertyType = 6
	PropertyTypeDataStore PropertyType = 7
)

// String returns the type name.
func (t PropertyType) String() string {
	switch t {
	case PropertyTypeNone:
		return "none"
	case PropertyTypeByte:
		return "byte"
	case PropertyTypeUlong:
		return "ulong"
	case PropertyTypeArray:
		return "array"
	case PropertyTypeString:
		return "string"
	case PropertyTypeVersion:
		return "version"
	case PropertyTypeSymbology:
		return "symbology"
	case PropertyTypeDataStore:
		return "datastore"
	default:
		return "unknown"
	}
}

// Property is a typed property payload.
//
// CBOR encoding:
//
//	{
//	  1: id,        // uint32
//	  2: type,      // uint8
//	  3..9: value   // exactly one, selected by type
//	}
type Property struct {
	ID        PropertyID   `cbor:"1,keyasint"`
	Type      PropertyType `cbor:"2,keyasint"`
	Byte      uint8        `cbor:"3,keyasint,omitempty"`
	Ulong     uint32       `cbor:"4,keyasint,omitempty"`
	Array     []byte       `cbor:"5,keyasint,omitempty"`
	String    string       `cbor:"6,keyasint,omitempty"`
	Version   *Version     `cbor:"7,keyasint,omitempty"`
	Symbology *Symbology   `cbor:"8,keyasint,omitempty"`
	DataStore *DataStore   `cbor:"9,keyasint,omitempty"`
}

// NoneProperty builds a property with no value, as used by most get requests.
func NoneProperty(id PropertyID) *Property {
	return &Property{ID: id, Type: PropertyTypeNone}
}

// ByteProperty builds a byte-valued property.
func ByteProperty(id PropertyID, v uint8) *Property {
	return &Property{ID: id, Type: PropertyTypeByte, Byte: v}
}

// UlongProperty builds a ulong-valued property.
func UlongProperty(id PropertyID, v uint32) *Property {
	return &Property{ID: id, Type: PropertyTypeUlong, Ulong: v}
}

// ArrayProperty builds a byte-array property. The slice is copied.
func ArrayProperty(id PropertyID, v []byte) *Property {
	return &Property{ID: id, Type: PropertyTypeArray, Array: append([]byte(nil), v...)}
}

// StringProperty builds a string property.
func StringProperty(id PropertyID, v string) *Property {
	return &Property{ID: id, Type: PropertyTypeString, String: v}
}

// VersionProperty builds a version property.
func VersionProperty(id PropertyID, v Version) *Property {
	return &Property{ID: id, Type: PropertyTypeVersion, Version: &v}
}

// SymbologyProperty builds a symbology property.
func SymbologyProperty(id PropertyID, v Symbology) *Property {
	return &Property{ID: id, Type: PropertyTypeSymbology, Symbology: &v}
}

// DataStoreProperty builds a data store property.
func DataStoreProperty(id PropertyID, v DataStore) *Property {
	v.Data = append([]byte(nil), v.Data...)
	return &Property{ID: id, Type: PropertyTypeDataStore, DataStore: &v}
}

func (p *Property) want(t PropertyType) error {
	if p == nil {
		return fmt.Errorf("%w: nil property, want %s", ErrPropertyType, t)
	}
	if p.Type != t {
		return fmt.Errorf("%w: %s is %s, want %s", ErrPropertyType, p.ID, p.Type, t)
	}
	return nil
}

// AsByte returns the byte value.
func (p *Property) AsByte() (uint8, error) {
	if err := p.want(PropertyTypeByte); err != nil {
		return 0, err
	}
	return p.Byte, nil
}

// AsUlong returns the ulong value.
func (p *Property) AsUlong() (uint32, error) {
	if err := p.want(PropertyTypeUlong); err != nil {
		return 0, err
	}
	return p.Ulong, nil
}

// AsArray returns the array value.
func (p *Property) AsArray() ([]byte, error) {
	if err := p.want(PropertyTypeArray); err != nil {
		return nil, err
	}
	return p.Array, nil
}

// AsString returns the string value.
func (p *Property) AsString() (string, error) {
	if err := p.want(PropertyTypeString); err != nil {
		return "", err
	}
	return p.String, nil
}

// AsVersion returns the version value.
func (p *Property) AsVersion() (Version, error) {
	if err := p.want(PropertyTypeVersion); err != nil {
		return Version{}, err
	}
	if p.Version == nil {
		return Version{}, fmt.Errorf("%w: %s has no version", ErrPropertyType, p.ID)
	}
	return *p.Version, nil
}

// AsSymbology returns the symbology value.
func (p *Property) AsSymbology() (Symbology, error) {
	if err := p.want(PropertyTypeSymbology); err != nil {
		return Symbology{}, err
	}
	if p.Symbology == nil {
		return Symbology{}, fmt.Errorf("%w: %s has no symbology", ErrPropertyType, p.ID)
	}
	return *p.Symbology, nil
}

// AsDataStore returns the data store value.
func (p *Property) AsDataStore() (DataStore, error) {
	if err := p.want(PropertyTypeDataStore); err != nil {
		return DataStore{}, err
	}
	if p.DataStore == nil {
		return DataStore{}, fmt.Errorf("%w: %s has no data store", ErrPropertyType, p.ID)
	}
	return *p.DataStore, nil
}

// Version is a firmware or service version.
type Version struct {
	Major  uint16 `cbor:"1,keyasint"`
	Middle uint16 `cbor:"2,keyasint"`
	Minor  uint16 `cbor:"3,keyasint"`
	Build  uint32 `cbor:"4,keyasint"`
	Year   uint16 `cbor:"5,keyasint,omitempty"`
	Month  uint16 `cbor:"6,keyasint,omitempty"`
	Day    uint16 `cbor:"7,keyasint,omitempty"`
}

// String formats the version as major.middle.minor.build.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Middle, v.Minor, v.Build)
}

// DataStore is one slot of a scanner's data store.
type DataStore struct {
	Index uint16 `cbor:"1,keyasint"`
	Data  []byte `cbor:"2,keyasint,omitempty"`
}
