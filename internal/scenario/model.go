// Package scenario replays reference-lifetime scenarios against the
// simulated runtime and checks the reference tables afterwards.
//
// A scenario file is YAML:
//
//	name: maps
//	runtime:
//	  local_capacity: 16
//	scenarios:
//	  - name: put then get
//	    steps:
//	      - {op: new_map, as: m}
//	      - {op: put, map: m, key: x, value: "1", absent: true}
//	      - {op: get, map: m, key: x, want: "1"}
//	    expect:
//	      global_refs: 0
package scenario

// Suite is one scenario file.
type Suite struct {
	Name      string     `yaml:"name" json:"name"`
	Path      string     `yaml:"-" json:"path"`
	Runtime   Runtime    `yaml:"runtime" json:"runtime"`
	Scenarios []Scenario `yaml:"scenarios" json:"scenarios"`
}

// Runtime configures the simulated runtime every scenario of a suite starts
// with. Zero values keep the runtime defaults.
type Runtime struct {
	LocalCapacity int `yaml:"local_capacity" json:"local_capacity"`
	MaxLocals     int `yaml:"max_locals" json:"max_locals"`
}

// Scenario is a sequence of steps run on a fresh runtime.
//
// Setup runs on the calling thread. Steps then run on the calling thread, or,
// if Threads is above one, on that many freshly attached threads at once.
// Each thread sees its own clone of every global reference created by Setup.
type Scenario struct {
	Name    string `yaml:"name" json:"name"`
	Threads int    `yaml:"threads" json:"threads,omitempty"`
	Setup   []Step `yaml:"setup" json:"setup,omitempty"`
	Steps   []Step `yaml:"steps" json:"steps"`
	Expect  Expect `yaml:"expect" json:"expect"`
}

// Step is one operation. Which fields apply depends on Op:
//
//	new_map    As                        create a java/util/HashMap
//	put        Map Key Value [Want|Absent]
//	get        Map Key [Want|Absent]
//	remove     Map Key [Want|Absent]
//	size       Map Want
//	iter       Map Entries               iterate, compare every entry
//	global     Map As                    promote a map to a global reference
//	drop       Map                       drop a global reference
//	frame      Capacity Steps            run Steps inside a local frame
//	parse_int  Value [Want]              call Integer.parseInt
//	throw      Class Message             throw and catch; always fails
//	collect                              run the collector
//
// Repeat runs the step that many times. Error makes the step expect a
// failure whose message contains it. An exception a step leaves pending is
// caught, and its description becomes part of the failure, so Error can
// match e.g. "java.lang.NumberFormatException: For input string".
type Step struct {
	Op       string            `yaml:"op" json:"op"`
	As       string            `yaml:"as,omitempty" json:"as,omitempty"`
	Map      string            `yaml:"map,omitempty" json:"map,omitempty"`
	Key      string            `yaml:"key,omitempty" json:"key,omitempty"`
	Value    string            `yaml:"value,omitempty" json:"value,omitempty"`
	Want     *string           `yaml:"want,omitempty" json:"want,omitempty"`
	Absent   bool              `yaml:"absent,omitempty" json:"absent,omitempty"`
	Entries  map[string]string `yaml:"entries,omitempty" json:"entries,omitempty"`
	Class    string            `yaml:"class,omitempty" json:"class,omitempty"`
	Message  string            `yaml:"message,omitempty" json:"message,omitempty"`
	Capacity int32             `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	Repeat   int               `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	Error    string            `yaml:"error,omitempty" json:"error,omitempty"`
	Steps    []Step            `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Expect holds the checks made once every step has run. Unset fields are
// not checked.
type Expect struct {
	LocalRefs        *int `yaml:"local_refs" json:"local_refs,omitempty"`
	GlobalRefs       *int `yaml:"global_refs" json:"global_refs,omitempty"`
	MaxPeakLocalRefs *int `yaml:"max_peak_local_refs" json:"max_peak_local_refs,omitempty"`
	Threads          *int `yaml:"threads" json:"threads,omitempty"`
}
