// Package version parses and compares OPNsense version strings.
//
// OPNsense versions follow a YY.M[.P][_R] scheme: "26.1.2_5" is patch 2,
// package revision 5, of the 26.1 release series. The YY.M prefix is the
// branch; all branch comparisons in the upgrade logic use this projection.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var revisionSuffix = regexp.MustCompile(`_\d+$`)

// Normalize strips the trailing package revision ("_5") from a version
// string. All version comparisons operate on normalized strings.
func Normalize(v string) string {
	return revisionSuffix.ReplaceAllString(strings.TrimSpace(v), "")
}

// Branch returns the YY.M release series of a version: "26.1" for
// "26.1.2_5". A string with fewer than two dotted parts is returned as is.
func Branch(v string) string {
	parts := strings.Split(Normalize(v), ".")
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

// SameBranch reports whether two versions belong to the same release
// series. Both sides are normalized first.
func SameBranch(a, b string) bool {
	return Branch(a) == Branch(b)
}

// BranchComponents splits a branch into its numeric year and month
// components. Returns ok=false if the version does not parse.
func BranchComponents(v string) (year, month int, ok bool) {
	parts := strings.SplitN(Normalize(v), ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return year, month, true
}

// NextBranches returns the plausible successor branches for the given
// version, most likely first. OPNsense releases land in January and July,
// so a x.7 system looks at {x+1}.1 then {x+1}.7, and a x.1 system looks
// at {x}.7 then {x+1}.1.
func NextBranches(v string) []string {
	year, month, ok := BranchComponents(v)
	if !ok {
		return nil
	}
	if month >= 7 {
		return []string{
			fmt.Sprintf("%d.1", year+1),
			fmt.Sprintf("%d.7", year+1),
		}
	}
	return []string{
		fmt.Sprintf("%d.7", year),
		fmt.Sprintf("%d.1", year+1),
	}
}

// BranchLess reports whether branch a sorts before branch b numerically
// ("9.7" < "10.1", which a string comparison would get wrong).
func BranchLess(a, b string) bool {
	ay, am, aok := BranchComponents(a)
	by, bm, bok := BranchComponents(b)
	if !aok || !bok {
		return a < b
	}
	if ay != by {
		return ay < by
	}
	return am < bm
}
