// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package expr

import (
	"regexp"
	"strings"
	"sync"

	"github.com/latticedb/lattice/array"
)

// Like matches Child's string rows against an SQL-style pattern (`%` any
// run of characters, `_` exactly one), optionally negated and/or
// case-insensitive (spec §6.4). There is no general-purpose glob/LIKE
// matcher among the example repos' dependencies, so the pattern is
// translated to a stdlib regexp once and cached on the node.
type Like struct {
	Child           Node
	Pattern         string
	Negated         bool
	CaseInsensitive bool

	once sync.Once
	re   *regexp.Regexp
}

func (n *Like) ReturnDType(scope array.DType) (array.DType, error) {
	childDT, err := n.Child.ReturnDType(scope)
	if err != nil {
		return array.DType{}, err
	}
	return array.Bool(childDT.Nullable()), nil
}

func (n *Like) compile() {
	n.once.Do(func() {
		var b strings.Builder
		b.WriteString("^")
		if n.CaseInsensitive {
			b.WriteString("(?i)")
		}
		for _, r := range n.Pattern {
			switch r {
			case '%':
				b.WriteString(".*")
			case '_':
				b.WriteString(".")
			default:
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		b.WriteString("$")
		n.re = regexp.MustCompile(b.String())
	})
}

func (n *Like) Evaluate(a array.Array) (array.Array, error) {
	child, err := n.Child.Evaluate(a)
	if err != nil {
		return nil, err
	}
	n.compile()
	rows := child.Len()
	bools := make([]bool, rows)
	valid := make([]bool, rows)
	anyInvalid := false
	for i := 0; i < rows; i++ {
		sc, err := child.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if sc.IsNull() {
			anyInvalid = true
			continue
		}
		s, ok := sc.String()
		if !ok {
			return nil, array.NewError(array.InvalidArgument, "Like requires utf8 rows, got %s at row %d", sc.DType(), i).WithIndex(i)
		}
		valid[i] = true
		m := n.re.MatchString(s)
		if n.Negated {
			m = !m
		}
		bools[i] = m
	}
	validity := array.AllValidValidity()
	if !child.DType().Nullable() {
		validity = array.NonNullableValidity()
	}
	if anyInvalid {
		validity = array.ArrayValidity(array.NewBoolArrayFromBools(valid, array.NonNullableValidity()))
	}
	return array.NewBoolArrayFromBools(bools, validity), nil
}
