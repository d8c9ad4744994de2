package vhash

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
	"github.com/stretchr/testify/assert"
)

type expected struct {
	entries  map[uint]uint
	snapshot []map[uint]uint
}

type system struct {
	m        *Map[uint, uint]
	snapshot []*Map[uint, uint]
	cmdCount int
}

type xentry struct {
	Key   uint
	Value uint
}

type getResult struct {
	value uint
	ok    bool
}

const (
	uimax      = 999
	nSnapshots = 5
)

var (
	cmdCount       = 0
	maxVersionSeen uint32
	debug          = false
)

func progress(i interface{}) {
	if debug {
		fmt.Printf("%v\n", i)
	}
}

func copyEntries(entries map[uint]uint) map[uint]uint {
	res := make(map[uint]uint, len(entries))
	for k, v := range entries {
		res[k] = v
	}
	return res
}

func contentsMatch(m *Map[uint, uint], want map[uint]uint) error {
	if m.Size() != len(want) {
		return fmt.Errorf("size %d, expected %d", m.Size(), len(want))
	}
	seen := 0
	err := m.Iter(func(k, v uint) error {
		seen++
		ev, ok := want[k]
		if !ok {
			return fmt.Errorf("unexpected key %d", k)
		}
		if ev != v {
			return fmt.Errorf("key %d has %d, expected %d", k, v, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if seen != len(want) {
		return fmt.Errorf("iterated %d entries, expected %d", seen, len(want))
	}
	return nil
}

func propResult(name string, err error) *gopter.PropResult {
	if err != nil {
		fmt.Printf("%s PostCondition: %v\n", name, err)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	progress(name)
	return &gopter.PropResult{Status: gopter.PropTrue}
}

var SizeCommand = &commands.ProtoCommand{
	Name: "Size",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).cmdCount++
		return s.(*system).m.Size()
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		if len(state.(*expected).entries) != result.(int) {
			return propResult("Size", fmt.Errorf("expected=%d, actual=%d", len(state.(*expected).entries), result.(int)))
		}
		return propResult("Size", nil)
	},
}

var IterateCommand = &commands.ProtoCommand{
	Name: "Iterate",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).cmdCount++
		return s.(*system).m
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		return propResult("Iterate", contentsMatch(result.(*Map[uint, uint]), state.(*expected).entries))
	},
}

type snapshotCommand uint

func (n snapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	slot := int(n) % nSnapshots
	s.(*system).snapshot[slot] = s.(*system).m
	s.(*system).cmdCount++
	return nil
}

func (n snapshotCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	s.snapshot[int(n)%nSnapshots] = copyEntries(s.entries)
	return s
}

func (n snapshotCommand) PreCondition(state commands.State) bool {
	return true
}

func (n snapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return propResult(n.String(), nil)
}

func (n snapshotCommand) String() string {
	return fmt.Sprintf("Snapshot(%d)", int(n)%nSnapshots)
}

var genSnapshot = uintCommandGen(
	func(slot uint) commands.Command { return snapshotCommand(slot) },
	func(command interface{}) uint { return uint(command.(snapshotCommand)) })

// restoreCommand makes an older version current again, so later writes
// branch from it.
type restoreCommand uint

func (n restoreCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	sys.m = sys.snapshot[int(n)%nSnapshots]
	sys.cmdCount++
	return sys.m
}

func (n restoreCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	s.entries = copyEntries(s.snapshot[int(n)%nSnapshots])
	return s
}

func (n restoreCommand) PreCondition(state commands.State) bool {
	return state.(*expected).snapshot[int(n)%nSnapshots] != nil
}

func (n restoreCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return propResult(n.String(), contentsMatch(result.(*Map[uint, uint]), state.(*expected).entries))
}

func (n restoreCommand) String() string {
	return fmt.Sprintf("Restore(%d)", int(n)%nSnapshots)
}

var genRestore = uintCommandGen(
	func(slot uint) commands.Command { return restoreCommand(slot) },
	func(command interface{}) uint { return uint(command.(restoreCommand)) })

// checkSnapshotCommand verifies that writes made since a snapshot, on any
// branch, left it alone.
type checkSnapshotCommand uint

func (n checkSnapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).cmdCount++
	return s.(*system).snapshot[int(n)%nSnapshots]
}

func (n checkSnapshotCommand) NextState(state commands.State) commands.State {
	return state
}

func (n checkSnapshotCommand) PreCondition(state commands.State) bool {
	return state.(*expected).snapshot[int(n)%nSnapshots] != nil
}

func (n checkSnapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	want := state.(*expected).snapshot[int(n)%nSnapshots]
	return propResult(n.String(), contentsMatch(result.(*Map[uint, uint]), want))
}

func (n checkSnapshotCommand) String() string {
	return fmt.Sprintf("CheckSnapshot(%d)", int(n)%nSnapshots)
}

var genCheckSnapshot = uintCommandGen(
	func(slot uint) commands.Command { return checkSnapshotCommand(slot) },
	func(command interface{}) uint { return uint(command.(checkSnapshotCommand)) })

type getCommand uint

func (key getCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).cmdCount++
	v, ok := s.(*system).m.Get(uint(key))
	return getResult{v, ok}
}

func (key getCommand) NextState(state commands.State) commands.State {
	return state
}

func (key getCommand) PreCondition(state commands.State) bool {
	return true
}

func (key getCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	want, ok := state.(*expected).entries[uint(key)]
	got := result.(getResult)
	if ok != got.ok || want != got.value {
		return propResult(key.String(), fmt.Errorf("expected (%d, %t), got (%d, %t)", want, ok, got.value, got.ok))
	}
	return propResult(key.String(), nil)
}

func (key getCommand) String() string {
	return fmt.Sprintf("Get(%d)", uint(key))
}

var genGet = uintCommandGen(
	func(key uint) commands.Command { return getCommand(key) },
	func(command interface{}) uint { return uint(command.(getCommand)) })

type deleteCommand uint

func (key deleteCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	next, err := sys.m.Delete(uint(key))
	if err != nil {
		return err
	}
	sys.m = next
	sys.cmdCount++
	if v := next.VersionNumber(); v > maxVersionSeen {
		maxVersionSeen = v
	}
	return next
}

func (key deleteCommand) NextState(state commands.State) commands.State {
	delete(state.(*expected).entries, uint(key))
	return state
}

func (key deleteCommand) PreCondition(state commands.State) bool {
	return true
}

func (key deleteCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	switch result := result.(type) {
	case error:
		return propResult(key.String(), result)
	case *Map[uint, uint]:
		if result.ContainsKey(uint(key)) {
			return propResult(key.String(), fmt.Errorf("key %d still present", uint(key)))
		}
		if result.Size() != len(state.(*expected).entries) {
			return propResult(key.String(), fmt.Errorf("size %d, expected %d", result.Size(), len(state.(*expected).entries)))
		}
	}
	return propResult(key.String(), nil)
}

func (key deleteCommand) String() string {
	return fmt.Sprintf("Delete(%d)", uint(key))
}

var genDelete = uintCommandGen(
	func(key uint) commands.Command { return deleteCommand(key) },
	func(command interface{}) uint { return uint(command.(deleteCommand)) })

type putCommand xentry

func (e putCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	next, err := sys.m.Put(e.Key, e.Value)
	if err != nil {
		return err
	}
	sys.m = next
	sys.cmdCount++
	if v := next.VersionNumber(); v > maxVersionSeen {
		maxVersionSeen = v
	}
	return next
}

func (e putCommand) NextState(state commands.State) commands.State {
	state.(*expected).entries[e.Key] = e.Value
	return state
}

func (e putCommand) PreCondition(state commands.State) bool {
	return true
}

func (e putCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	switch result := result.(type) {
	case error:
		return propResult(e.String(), result)
	case *Map[uint, uint]:
		v, ok := result.Get(e.Key)
		if !ok || v != e.Value {
			return propResult(e.String(), fmt.Errorf("got (%d, %t)", v, ok))
		}
		if result.Size() != len(state.(*expected).entries) {
			return propResult(e.String(), fmt.Errorf("size %d, expected %d", result.Size(), len(state.(*expected).entries)))
		}
	}
	return propResult(e.String(), nil)
}

func (e putCommand) String() string {
	return fmt.Sprintf("Put(%d, %d)", e.Key, e.Value)
}

var genPut = entryCommandGen(func(e xentry) commands.Command { return putCommand(e) })

func entryCommandGen(toCommand func(xentry) commands.Command) gopter.Gen {
	return gen.Struct(reflect.TypeOf(xentry{}), map[string]gopter.Gen{
		"Key":   gen.UIntRange(0, uimax),
		"Value": gen.UIntRange(0, 3),
	}).Map(func(entry xentry) commands.Command {
		return toCommand(entry)
	})
}

func uintCommandGen(toCommand func(uint) commands.Command, fromCommand func(interface{}) uint) gopter.Gen {
	return gen.UIntRange(0, uimax).Map(func(value uint) commands.Command {
		return toCommand(value)
	}).WithShrinker(func(v interface{}) gopter.Shrink {
		return gen.UIntShrinker(fromCommand(v)).Map(func(value uint) commands.Command {
			return toCommand(value)
		})
	})
}

var mapCommands = &commands.ProtoCommands{
	NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
		var pairs []Pair[uint, uint]
		for key, value := range initialState.(*expected).entries {
			pairs = append(pairs, Pair[uint, uint]{key, value})
		}
		m, err := NewMapOf[uint, uint](&Options{InitialBuckets: 3}, pairs...)
		if err != nil {
			return err
		}
		progress("NewSystem")
		return &system{m, make([]*Map[uint, uint], nSnapshots), 0}
	},
	DestroySystemUnderTestFunc: func(s commands.SystemUnderTest) {
		cmdCount += s.(*system).cmdCount
	},
	InitialStateGen: gen.MapOf(gen.UIntRange(0, uimax), gen.UIntRange(0, 3)).Map(func(entries map[uint]uint) *expected {
		return &expected{
			entries:  entries,
			snapshot: make([]map[uint]uint, nSnapshots),
		}
	}),
	InitialPreConditionFunc: func(state commands.State) bool {
		_ = state.(*expected)
		return true
	},
	GenCommandFunc: func(state commands.State) gopter.Gen {
		return gen.Weighted(
			[]gen.WeightedGen{
				{Weight: 100, Gen: genDelete},
				{Weight: 100, Gen: genGet},
				{Weight: 100, Gen: genPut},
				{Weight: 10, Gen: genSnapshot},
				{Weight: 5, Gen: genRestore},
				{Weight: 5, Gen: genCheckSnapshot},
				{Weight: 5, Gen: gen.Const(IterateCommand)},
				{Weight: 50, Gen: gen.Const(SizeCommand)},
			},
		)
	},
}

func TestExerciser(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 512
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("vhash exerciser", commands.Prop(mapCommands))
	properties.TestingRun(t)
	if !t.Failed() {
		assert.Greater(t, maxVersionSeen, uint32(0))
		t.Logf("highest version: %d", maxVersionSeen)
		t.Logf("successful commands: %d", cmdCount)
	}
}
