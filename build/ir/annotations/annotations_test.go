// Copyright 2024 Google LLC
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

package annotations_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/memflat/build/ir/annotations"
)

func TestAttributes(t *testing.T) {
	var attrs annotations.Attributes
	if attrs.Len() != 0 || attrs.String() != "" {
		t.Fatalf("zero attributes are not empty: %s", attrs.String())
	}
	annotations.Set(&attrs, "nontemporal", true)
	annotations.Set(&attrs, "in_bounds", []bool{true, false})
	annotations.Set(&attrs, "tag", "hot")
	if err := annotations.SetNew(&attrs, "tag", "cold"); err == nil {
		t.Errorf("expected an error when setting an existing attribute")
	}
	if got, want := attrs.String(), `{nontemporal = true, in_bounds = [true, false], tag = "hot"}`; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
	inBounds, ok := annotations.Get[[]bool](&attrs, "in_bounds")
	if !ok || !cmp.Equal(inBounds, []bool{true, false}) {
		t.Errorf("got in_bounds=%v,%v but want [true false],true", inBounds, ok)
	}
	if _, ok := annotations.Get[int](&attrs, "tag"); ok {
		t.Errorf("attribute of type string returned as an int")
	}
	if got := annotations.GetDef(&attrs, "alignment", 16); got != 16 {
		t.Errorf("got default %d but want 16", got)
	}

	var other annotations.Attributes
	other.CopyFrom(&attrs)
	if !other.Equal(&attrs) {
		t.Errorf("copied attributes %s differ from %s", other.String(), attrs.String())
	}
	other.Remove("tag")
	if other.Equal(&attrs) {
		t.Errorf("attributes are equal after removing an attribute")
	}
	if !cmp.Equal(attrs.Names(), []string{"nontemporal", "in_bounds", "tag"}) {
		t.Errorf("original attributes modified by a copy: %v", attrs.Names())
	}
}
