package expected

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/dq"
	"github.com/leapstack-labs/leapdq/pkg/partition"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Output dataset keys.
const (
	FacilityNameMinTimeSpent  = "facility_name_min_time_spent_per_visit_date"
	FacilityTypeAvgTimeSpent  = "facility_type_avg_time_spent_per_visit_date"
	PatientSumTreatmentCost   = "patient_sum_treatment_cost_per_facility_type"
	avgDecimals               = 2
	visitDateColumn           = "visit_date"
	visitTimestampColumn      = "visit_timestamp"
	facilityTypePartitionName = "facility_type_partition"
)

// Keys lists the output dataset keys in a stable order.
var Keys = []string{FacilityNameMinTimeSpent, FacilityTypeAvgTimeSpent, PatientSumTreatmentCost}

// AllowedFacilityTypes are the facility types an average-time output may
// contain.
var AllowedFacilityTypes = []any{"Hospital", "Clinic", "Specialty Center"}

// RangeCheck bounds the values of one column.
type RangeCheck struct {
	Column string
	Range  dq.Range
}

// Output is the expectation for one output dataset: the table it should
// equal and the checks its files must pass.
type Output struct {
	Key      string
	Expected *table.Table
	// Keys identify a row; they drive the duplicate check and sorting.
	Keys []string
	// NotNull lists the columns that must not contain missing values.
	NotNull   []string
	Partition partition.Rule
	Coerce    coerce.Spec
	// AllowedValues maps a column to its admissible values.
	AllowedValues map[string][]any
	RangeChecks   []RangeCheck
}

// Outputs derives the three output datasets from the normalized visits,
// facilities and patients tables.
func Outputs(visits, facilities, patients *table.Table) ([]Output, error) {
	vf, err := visitsWithFacilities(visits, facilities)
	if err != nil {
		return nil, err
	}

	minTime, err := GroupBy(vf, []string{"facility_name", visitDateColumn},
		Min("duration_minutes", "min_time_spent"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FacilityNameMinTimeSpent, err)
	}

	avgTime, err := GroupBy(vf, []string{"facility_type", visitDateColumn},
		Mean("duration_minutes", "avg_time_spent", avgDecimals))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FacilityTypeAvgTimeSpent, err)
	}

	vfp, err := withPatients(vf, patients)
	if err != nil {
		return nil, err
	}
	sumCost, err := GroupBy(vfp, []string{"facility_type", "full_name"},
		Sum("treatment_cost", "sum_treatment_cost"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PatientSumTreatmentCost, err)
	}

	monthly := partition.Rule{
		Column:     "partition_date",
		Derivation: partition.Derivation{Kind: partition.MonthBucket, SourceColumn: visitDateColumn},
	}

	return []Output{
		{
			Key:       FacilityNameMinTimeSpent,
			Expected:  minTime,
			Keys:      []string{"facility_name", visitDateColumn},
			NotNull:   []string{"facility_name", visitDateColumn, "min_time_spent"},
			Partition: monthly,
			Coerce:    coerce.Spec{visitDateColumn: coerce.TargetDatetime, "min_time_spent": coerce.TargetInt},
		},
		{
			Key:           FacilityTypeAvgTimeSpent,
			Expected:      avgTime,
			Keys:          []string{"facility_type", visitDateColumn},
			NotNull:       []string{"facility_type", visitDateColumn, "avg_time_spent"},
			Partition:     monthly,
			Coerce:        coerce.Spec{visitDateColumn: coerce.TargetDatetime, "avg_time_spent": coerce.TargetFloat},
			AllowedValues: map[string][]any{"facility_type": AllowedFacilityTypes},
		},
		{
			Key:      PatientSumTreatmentCost,
			Expected: sumCost,
			Keys:     []string{"facility_type", "full_name"},
			NotNull:  []string{"facility_type", "full_name", "sum_treatment_cost"},
			Partition: partition.Rule{
				Column:     facilityTypePartitionName,
				Derivation: partition.Derivation{Kind: partition.UnderscoreNormalize, SourceColumn: "facility_type"},
			},
			Coerce:      coerce.Spec{"sum_treatment_cost": coerce.TargetFloat},
			RangeChecks: []RangeCheck{{Column: "sum_treatment_cost", Range: dq.Range{Min: int64(0)}}},
		},
	}, nil
}

// Lookup returns the output with the given key.
func Lookup(outputs []Output, key string) (Output, bool) {
	for _, o := range outputs {
		if o.Key == key {
			return o, true
		}
	}
	return Output{}, false
}

// visitsWithFacilities coerces the visit timestamp, derives the visit date
// and joins facility name and type.
func visitsWithFacilities(visits, facilities *table.Table) (*table.Table, error) {
	res, err := coerce.Coerce(visits, coerce.Spec{visitTimestampColumn: coerce.TargetDatetime})
	if err != nil {
		return nil, fmt.Errorf("visits: %w", err)
	}
	if err := res.Table.Require(visitTimestampColumn, "facility_id", "duration_minutes"); err != nil {
		return nil, fmt.Errorf("visits: %w", err)
	}
	v, err := DeriveColumn(res.Table, visitDateColumn, table.TypeDatetime, func(row map[string]any) any {
		ts, ok := row[visitTimestampColumn].(time.Time)
		if !ok {
			return nil
		}
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	})
	if err != nil {
		return nil, err
	}

	f, err := facilities.Select("id", "facility_name", "facility_type")
	if err != nil {
		return nil, fmt.Errorf("facilities: %w", err)
	}
	return LeftJoin(v, f, "facility_id", "id")
}

// withPatients joins patient names and derives full_name as the trimmed
// "first last" with missing parts treated as empty.
func withPatients(vf, patients *table.Table) (*table.Table, error) {
	p, err := patients.Select("id", "first_name", "last_name")
	if err != nil {
		return nil, fmt.Errorf("patients: %w", err)
	}
	if err := vf.Require("patient_id"); err != nil {
		return nil, fmt.Errorf("visits: %w", err)
	}
	joined, err := LeftJoin(vf, p, "patient_id", "id")
	if err != nil {
		return nil, err
	}
	return DeriveColumn(joined, "full_name", table.TypeString, func(row map[string]any) any {
		first := table.Format(row["first_name"])
		last := table.Format(row["last_name"])
		return strings.TrimSpace(first + " " + last)
	})
}
