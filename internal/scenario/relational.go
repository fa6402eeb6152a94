package scenario

import (
	"context"

	"github.com/leapstack-labs/leapdq/pkg/coerce"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dq"
	"github.com/leapstack-labs/leapdq/pkg/table"
)

// Source (raw) and normalized (3NF) table names.
const (
	tableSrcFacilities = "src_generated_facilities"
	tableSrcPatients   = "src_generated_patients"
	tableSrcVisits     = "src_generated_visits"
	tableFacilities    = "facilities"
	tablePatients      = "patients"
	tableVisits        = "visits"
)

// layerPair links a raw table to the 3NF table it is normalized into.
type layerPair struct {
	src, nf3 string
	// srcKeys in src must all be found as nf3Keys in nf3.
	srcKeys, nf3Keys []string
	// coerce is applied to both sides before keys are compared.
	coerce coerce.Spec
}

var visitKey = []string{"patient_id", "facility_id", "visit_timestamp"}

var layerPairs = []layerPair{
	{src: tableSrcFacilities, nf3: tableFacilities, srcKeys: []string{"facility_id"}, nf3Keys: []string{"external_id"}},
	{src: tableSrcPatients, nf3: tablePatients, srcKeys: []string{"patient_id"}, nf3Keys: []string{"external_id"}},
	{
		src: tableSrcVisits, nf3: tableVisits,
		srcKeys: visitKey, nf3Keys: visitKey,
		coerce: coerce.Spec{"visit_timestamp": coerce.TargetDatetime},
	},
}

// sourceBattery checks that every raw table has rows.
func (r *Runner) sourceBattery(ctx context.Context) []CheckRun {
	var runs []CheckRun
	for _, p := range layerPairs {
		runs = append(runs, r.notEmpty(ctx, TierSource, p.src))
	}
	return runs
}

// normalizedBattery checks the 3NF tables against their raw counterparts.
func (r *Runner) normalizedBattery(ctx context.Context) []CheckRun {
	var runs []CheckRun
	for _, p := range layerPairs {
		runs = append(runs, r.notEmpty(ctx, TierNormalized, p.nf3))
	}
	for _, p := range layerPairs {
		runs = append(runs, r.check(TierNormalized, p.nf3, dq.CheckRowCountMatches, core.SeverityError,
			func() (core.CheckResult, error) {
				src, nf3, err := r.loadPair(ctx, p.src, p.nf3)
				if err != nil {
					return core.CheckResult{}, err
				}
				return dq.RowCountMatches(src, nf3), nil
			}))
	}
	for _, p := range layerPairs {
		runs = append(runs, r.check(TierNormalized, p.nf3, dq.CheckKeysContained, core.SeverityError,
			func() (core.CheckResult, error) {
				src, nf3, err := r.loadPair(ctx, p.src, p.nf3)
				if err != nil {
					return core.CheckResult{}, err
				}
				if len(p.coerce) > 0 {
					if src, err = coerce.Apply(src, p.coerce); err != nil {
						return core.CheckResult{}, err
					}
					if nf3, err = coerce.Apply(nf3, p.coerce); err != nil {
						return core.CheckResult{}, err
					}
				}
				return dq.KeysContained(src, p.srcKeys, nf3, p.nf3Keys, dq.WithLimit(r.limit))
			}))
	}
	runs = append(runs, r.check(TierNormalized, tableVisits, dq.CheckNoDuplicates, core.SeverityError,
		func() (core.CheckResult, error) {
			visits, err := r.load(ctx, tableVisits)
			if err != nil {
				return core.CheckResult{}, err
			}
			return dq.NoDuplicates(visits, visitKey, dq.WithLimit(r.limit))
		}))
	return runs
}

func (r *Runner) notEmpty(ctx context.Context, tier Tier, name string) CheckRun {
	return r.check(tier, name, dq.CheckNotEmpty, core.SeverityError, func() (core.CheckResult, error) {
		t, err := r.load(ctx, name)
		if err != nil {
			return core.CheckResult{}, err
		}
		return dq.NotEmpty(t), nil
	})
}

func (r *Runner) loadPair(ctx context.Context, src, nf3 string) (*table.Table, *table.Table, error) {
	s, err := r.load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	n, err := r.load(ctx, nf3)
	if err != nil {
		return nil, nil, err
	}
	return s, n, nil
}
