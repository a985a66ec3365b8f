// internal/service/customer/metadata.go
package customer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"retention-service/internal/domain/customer"

	"github.com/cespare/xxhash/v2"
)

// DeriveMetadata collects the distinct option values of every filter group
// and the bounds of the days-since-visit slider.
func DeriveMetadata(records []customer.Customer) customer.Metadata {
	agencies := make(map[string]struct{})
	models := make(map[string]struct{})
	years := make(map[string]struct{})
	packages := make(map[string]struct{})
	advisors := make(map[string]struct{})

	minDays, maxDays := math.MaxInt, 0
	for i := range records {
		c := &records[i]
		if a := strings.TrimSpace(c.Agency); a != "" {
			agencies[a] = struct{}{}
		}
		if c.Model != "" {
			models[c.Model] = struct{}{}
		}
		years[strconv.Itoa(c.Year)] = struct{}{}
		if c.Package == nil || *c.Package == "" {
			packages[customer.NoPackage] = struct{}{}
		} else {
			packages[*c.Package] = struct{}{}
		}
		if c.Advisor != "" {
			advisors[c.Advisor] = struct{}{}
		}
		if d := c.DaysSinceVisit; d > 0 {
			minDays = min(minDays, d)
			maxDays = max(maxDays, d)
		}
	}

	bounds := customer.DaysBounds{Min: 0, Max: customer.DefaultDaysCeiling}
	if maxDays > 0 {
		bounds = customer.DaysBounds{Min: minDays, Max: maxDays}
	}

	yearList := keys(years)
	sort.SliceStable(yearList, func(i, j int) bool {
		a, _ := strconv.Atoi(yearList[i])
		b, _ := strconv.Atoi(yearList[j])
		return a > b
	})

	return customer.Metadata{
		Agencies: sortedKeys(agencies),
		Models:   sortedKeys(models),
		Years:    yearList,
		Packages: sortedKeys(packages),
		Advisors: sortedKeys(advisors),
		Days:     bounds,
	}
}

// Shape fingerprints the option sets of meta. Two stores with the same
// shape accept the same selections.
func Shape(meta customer.Metadata) string {
	h := xxhash.New()
	for _, group := range [][]string{meta.Agencies, meta.Models, meta.Years, meta.Packages, meta.Advisors} {
		for _, v := range group {
			_, _ = h.WriteString(v)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{1})
	}
	_, _ = h.WriteString(strconv.Itoa(meta.Days.Max))
	return strconv.FormatUint(h.Sum64(), 16)
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := keys(set)
	sort.Strings(out)
	return out
}
