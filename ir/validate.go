// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Validate checks the structure of the graph:
// edges point to existing outputs and every edge has a matching entry in
// the users multiset of its producer. All violations are reported.
func (g *Graph) Validate() error {
	var err error
	for _, n := range g.nodes {
		uses := make(map[NodeID]int)
		var producers []NodeID
		for i, in := range n.Inputs {
			producer := g.Node(in.Node)
			if producer == nil {
				err = multierr.Append(err, errors.Errorf("%s: input %d refers to unknown node %d", n.Name, i, in.Node))
				continue
			}
			if in.Index < 0 || in.Index >= len(producer.Outputs) {
				err = multierr.Append(err, errors.Errorf("%s: input %d refers to output %d of %s which has %d outputs", n.Name, i, in.Index, producer.Name, len(producer.Outputs)))
			}
			if uses[in.Node] == 0 {
				producers = append(producers, in.Node)
			}
			uses[in.Node]++
		}
		for _, pid := range producers {
			producer, count := g.Node(pid), uses[pid]
			if got := producer.users[n.id]; got != count {
				err = multierr.Append(err, errors.Errorf("%s uses %s %d time(s) but %s records %d use(s)", n.Name, producer.Name, count, producer.Name, got))
			}
		}
		for _, cid := range n.Users() {
			consumer := g.Node(cid)
			if consumer == nil {
				err = multierr.Append(err, errors.Errorf("%s: unknown user %d", n.Name, cid))
				continue
			}
			count := 0
			for _, in := range consumer.Inputs {
				if in.Node == n.id {
					count++
				}
			}
			if count == 0 {
				err = multierr.Append(err, errors.Errorf("%s records %s as a user but %s does not use it", n.Name, consumer.Name, consumer.Name))
			}
		}
	}
	return err
}
