/*
derive.go - Auto-calculation of dependent fields

PURPOSE:
  A Deriver owns a set of derivation rules ("Target = Compute(Source)") plus
  chain-only links, all registered as edges of one Graph. Triggering a field
  either propagates fresh values down the graph or, when the trigger no longer
  holds a date, cascade-clears the auto-owned fields below it.

OWNERSHIP TRANSITIONS:
  Unset/Auto --Trigger--> Auto        (value recomputed)
  any        --MarkManual--> Manual   (pinned; calculation and cascades skip it)
  Manual     --source cleared--> Unset (value kept, pin released so the next
                                        trigger recalculates it)
  Auto       --source cleared--> Unset (value written as "")

CASCADE WALK:
  Clearing A visits A's children. An auto child is cleared and the walk
  continues below it. A child that still holds a value it owns (manual or
  unset) stops the walk: its own dependents were derived from a value that is
  still there. An empty unset child is transparent.

EXAMPLE:
  d, _ := NewDeriver([]Rule{{Source: "start", Target: "end", Compute: plus30}}, nil)
  out := d.Trigger(Dates{"start": "2024-01-01"}, nil, "start")
  // out.Dates["end"] == "2024-01-31", out.Ownership["end"] == OriginAuto
*/
package generic

// Rule derives Target from Source.
type Rule struct {
	Name    string
	Source  Field
	Target  Field
	Compute func(Date) Date
}

// Link is a dependency edge with no calculation. It only participates in
// cascade clearing.
type Link struct {
	From Field
	To   Field
}

// Derivation is the outcome of one Trigger call.
type Derivation struct {
	Dates     Dates     // full updated field map
	Ownership Ownership // full updated ownership
	Patch     Dates     // changed fields only, "" for cleared, ready for FieldStore.WriteFields
}

// Deriver applies rules over a Graph. It holds no per-record state and is
// safe to share.
type Deriver struct {
	graph *Graph
	rules map[Field][]Rule
}

// NewDeriver registers every rule and link as a graph edge.
func NewDeriver(rules []Rule, links []Link) (*Deriver, error) {
	d := &Deriver{graph: NewGraph(), rules: make(map[Field][]Rule)}
	for _, r := range rules {
		if err := d.graph.AddEdge(r.Source, r.Target); err != nil {
			return nil, err
		}
		d.rules[r.Source] = append(d.rules[r.Source], r)
	}
	for _, l := range links {
		if err := d.graph.AddEdge(l.From, l.To); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Deriver) Graph() *Graph { return d.graph }

// Rules returns the calculation rules whose source is f.
func (d *Deriver) Rules(f Field) []Rule {
	return append([]Rule(nil), d.rules[f]...)
}

// IsDerived reports whether some rule computes f.
func (d *Deriver) IsDerived(f Field) bool {
	for _, p := range d.graph.Parents(f) {
		for _, r := range d.rules[p] {
			if r.Target == f {
				return true
			}
		}
	}
	return false
}

// Trigger reacts to a change of field. Inputs are not mutated.
func (d *Deriver) Trigger(dates Dates, own Ownership, field Field) Derivation {
	out := Derivation{Dates: dates.Clone(), Ownership: own.Clone(), Patch: Dates{}}

	if value, ok := out.Dates.Date(field); ok {
		d.propagate(&out, field, value)
	} else {
		d.cascadeClear(&out, field)
	}
	return out
}

func (d *Deriver) propagate(out *Derivation, source Field, value Date) {
	for _, r := range d.rules[source] {
		if out.Ownership.IsManual(r.Target) {
			continue
		}
		computed := r.Compute(value)
		s := computed.String()
		if out.Dates[r.Target] != s {
			out.Dates[r.Target] = s
			out.Patch[r.Target] = s
		}
		out.Ownership[r.Target] = OriginAuto
		d.propagate(out, r.Target, computed)
	}
}

func (d *Deriver) cascadeClear(out *Derivation, source Field) {
	for _, child := range d.graph.Children(source) {
		switch out.Ownership.Of(child) {
		case OriginAuto:
			out.Dates[child] = ""
			out.Patch[child] = ""
			out.Ownership[child] = OriginUnset
			d.cascadeClear(out, child)
		case OriginManual:
			out.Ownership[child] = OriginUnset
		default:
			if !out.Dates.Has(child) {
				d.cascadeClear(out, child)
			}
		}
	}
}

// MarkManual pins f to the user. The returned map is a copy.
func MarkManual(own Ownership, f Field) Ownership {
	out := own.Clone()
	out[f] = OriginManual
	return out
}

// Release returns f to OriginUnset so the next trigger may recalculate it.
func Release(own Ownership, f Field) Ownership {
	out := own.Clone()
	out[f] = OriginUnset
	return out
}
