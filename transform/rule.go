// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package transform

import (
	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/pattern"
	"github.com/purpleidea/nnc/util/errwrap"
)

// Rule is a rewrite rule: a pattern and a function which proposes a replacement
// for the expressions that match it. A rule keeps no state between
// applications.
type Rule interface {
	// Name returns the name of the rule, eg: `fold_const_call`.
	Name() string

	// Pattern returns the top level pattern of the rule.
	Pattern() pattern.Pattern

	// GetReplace returns the replacement for a matched expression, or nil
	// if the expression should stay as it is. The root of the result is
	// the matched expression.
	GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error)
}

// Apply tries the rule on one expression. It returns the replacement, or nil if
// the rule did not match or did not propose anything. The input expression is
// never modified. Errors only come from the collaborators the rule uses.
func Apply(sess *interfaces.Session, rule Rule, expr ir.Expr) (ir.Expr, error) {
	res, ok := pattern.Match(rule.Pattern(), expr)
	if !ok {
		return nil, nil
	}
	replace, err := rule.GetReplace(sess, res)
	if err != nil {
		return nil, errwrap.Wrapf(err, "rule `%s` failed on %s", rule.Name(), expr)
	}
	if replace == nil || replace == expr {
		return nil, nil
	}
	if sess.Metrics != nil {
		sess.Metrics.RuleFired(rule.Name())
	}
	if sess.Debug {
		sess.Logf("rule %s: %s => %s", rule.Name(), expr, replace)
	}
	sess.Dump(interfaces.DumpRewrite, replace, "rewrite_"+rule.Name())
	return replace, nil
}

// ApplyFirst tries each rule in order and returns the first replacement.
func ApplyFirst(sess *interfaces.Session, rules []Rule, expr ir.Expr) (ir.Expr, error) {
	for _, rule := range rules {
		replace, err := Apply(sess, rule, expr)
		if err != nil {
			return nil, err
		}
		if replace != nil {
			return replace, nil
		}
	}
	return nil, nil
}
