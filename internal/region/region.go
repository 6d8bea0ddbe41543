package region

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrUnknownType   = errors.New("unknown institution type")
)

// ID identifies a regional education office.
type ID int

const (
	Seoul ID = iota + 1
	Busan
	Daegu
	Incheon
	Gwangju
	Daejeon
	Ulsan
	Sejong
	Gyeonggi
	Gangwon
	Chungbuk
	Chungnam
	Jeonbuk
	Jeonnam
	Gyeongbuk
	Gyeongnam
	Jeju
)

var regionNames = map[ID]string{
	Seoul:     "seoul",
	Busan:     "busan",
	Daegu:     "daegu",
	Incheon:   "incheon",
	Gwangju:   "gwangju",
	Daejeon:   "daejeon",
	Ulsan:     "ulsan",
	Sejong:    "sejong",
	Gyeonggi:  "gyeonggi",
	Gangwon:   "gangwon",
	Chungbuk:  "chungbuk",
	Chungnam:  "chungnam",
	Jeonbuk:   "jeonbuk",
	Jeonnam:   "jeonnam",
	Gyeongbuk: "gyeongbuk",
	Gyeongnam: "gyeongnam",
	Jeju:      "jeju",
}

// All returns every region in declaration order.
func All() []ID {
	ids := make([]ID, 0, len(regionNames))
	for id := Seoul; id <= Jeju; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (id ID) Valid() bool {
	_, ok := regionNames[id]
	return ok
}

func (id ID) String() string {
	name, ok := regionNames[id]
	if !ok {
		return fmt.Sprintf("region(%d)", int(id))
	}
	return name
}

// ParseID resolves a region by its case-insensitive name.
func ParseID(name string) (ID, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for id, n := range regionNames {
		if n == normalized {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// Type is the kind of educational institution, its value is the code the portals use.
type Type int

const (
	Kindergarten Type = iota + 1
	Elementary
	Middle
	High
)

var typeNames = map[Type]string{
	Kindergarten: "kindergarten",
	Elementary:   "elementary",
	Middle:       "middle",
	High:         "high",
}

func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	name, ok := typeNames[t]
	if !ok {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return name
}

// CourseCode is the value of the `schulCrseScCode` form field.
func (t Type) CourseCode() string {
	return fmt.Sprintf("%d", int(t))
}

// KindCode is the value of the `schulKndScCode` form field.
func (t Type) KindCode() string {
	return fmt.Sprintf("%02d", int(t))
}

// ParseType resolves an institution type by its case-insensitive name.
func ParseType(name string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}
