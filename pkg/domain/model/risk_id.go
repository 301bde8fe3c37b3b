package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// riskIDSegments is the segment count of a freshly allocated identifier: INITIAL/YYYY/MM/N
const riskIDSegments = 4

const riskIDSeparator = "/"

// ErrMalformedRiskID is returned when an identifier has fewer than the standard segments
var ErrMalformedRiskID = goerr.New("malformed risk identifier")

var departmentInitialPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

// RiskID is the human-readable report identifier such as "AM/2025/10/5".
// Identifiers produced by a merge carry one trailing sequence segment per source: "AM/2025/10/5/9".
type RiskID string

// String returns the string representation of RiskID
func (id RiskID) String() string {
	return string(id)
}

// Segments splits the identifier on "/"
func (id RiskID) Segments() []string {
	if id == "" {
		return nil
	}
	return strings.Split(string(id), riskIDSeparator)
}

// IsMerged reports whether the identifier was produced by a merge
func (id RiskID) IsMerged() bool {
	return len(id.Segments()) > riskIDSegments
}

// Validate checks that the identifier has at least the standard segments, all non-empty
func (id RiskID) Validate() error {
	segments := id.Segments()
	if len(segments) < riskIDSegments {
		return goerr.Wrap(ErrMalformedRiskID, "risk identifier has too few segments",
			goerr.V("risk_id", id), goerr.V("segments", len(segments)))
	}
	for _, s := range segments {
		if s == "" {
			return goerr.Wrap(ErrMalformedRiskID, "risk identifier has an empty segment", goerr.V("risk_id", id))
		}
	}
	return nil
}

// Sequence returns the last segment of the identifier
func (id RiskID) Sequence() string {
	segments := id.Segments()
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// SequenceKey returns the department/month key encoded in the identifier's prefix. Merged
// identifiers keep the prefix of their first source. Malformed identifiers have no key.
func (id RiskID) SequenceKey() (SequenceKey, bool) {
	segments := id.Segments()
	if len(segments) < riskIDSegments {
		return SequenceKey{}, false
	}
	return parseSequenceKey(segments[0], segments[1], segments[2])
}

func parseSequenceKey(initial, yearText, monthText string) (SequenceKey, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return SequenceKey{}, false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil {
		return SequenceKey{}, false
	}
	key := SequenceKey{DepartmentInitial: initial, Year: year, Month: month}
	if key.Validate() != nil {
		return SequenceKey{}, false
	}
	return key, true
}

// ParseSequenceKey reverses SequenceKey.String
func ParseSequenceKey(s string) (SequenceKey, bool) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return SequenceKey{}, false
	}
	return parseSequenceKey(parts[0], parts[1], parts[2])
}

// SequenceKey scopes sequence allocation to one department in one calendar month
type SequenceKey struct {
	DepartmentInitial string
	Year              int
	Month             int
}

// Validate checks the sequence key
func (k SequenceKey) Validate() error {
	if !departmentInitialPattern.MatchString(k.DepartmentInitial) {
		return goerr.New("department initial must be 1-8 alphanumeric characters", goerr.V("initial", k.DepartmentInitial))
	}
	if k.Year < 1000 || k.Year > 9999 {
		return goerr.New("year must have four digits", goerr.V("year", k.Year))
	}
	if k.Month < 1 || k.Month > 12 {
		return goerr.New("month must be between 1 and 12", goerr.V("month", k.Month))
	}
	return nil
}

// String returns a stable key usable as a counter document or row id
func (k SequenceKey) String() string {
	return fmt.Sprintf("%s_%04d_%02d", k.DepartmentInitial, k.Year, k.Month)
}

// Prefix returns the identifier prefix shared by every report allocated under the key
func (k SequenceKey) Prefix() string {
	return fmt.Sprintf("%s/%04d/%02d/", k.DepartmentInitial, k.Year, k.Month)
}

// NextRiskID formats a new identifier from a department initial, year, month and 1-based sequence number
func NextRiskID(departmentInitial string, year, month, sequence int) RiskID {
	return RiskID(fmt.Sprintf("%s/%04d/%02d/%d", departmentInitial, year, month, sequence))
}

// RiskID formats the identifier for a sequence number within this key
func (k SequenceKey) RiskID(sequence int) RiskID {
	return NextRiskID(k.DepartmentInitial, k.Year, k.Month, sequence)
}

// MergedRiskID combines source identifiers: the department/year/month prefix of the first source,
// followed by the last segment of every source in the given order.
func MergedRiskID(sources []RiskID) (RiskID, error) {
	if len(sources) == 0 {
		return "", goerr.Wrap(ErrMalformedRiskID, "no source identifiers to merge")
	}

	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return "", err
		}
	}

	prefix := sources[0].Segments()[:riskIDSegments-1]
	segments := make([]string, 0, len(prefix)+len(sources))
	segments = append(segments, prefix...)
	for _, src := range sources {
		segments = append(segments, src.Sequence())
	}

	return RiskID(strings.Join(segments, riskIDSeparator)), nil
}
