package cadence

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

// CallProgress holds well-known ToneScripts by name.
var CallProgress = map[string]string{
	"uk_dial":      "350@-21,440@-19;10(*/0/1+2)",
	"uk_ringback":  "400@-20,450@-20;10(.4/.2/1+2,.4/2/1+2)",
	"uk_busy":      "400@-20;10(.375/.375/1)",
	"uk_reorder":   "400@-20;10(*/0/1)",
	"uk_SIT":       "950@-16,1400@-16,1800@-16;5(.33/0/1,.33/0/2,.33/0/3, 0/1/0)",
	"us_dial":      "350@-13,440@-13;10(*/0/1+2)",
	"us_ringback":  "440@-19,480@-19;10(2/4/1+2)",
	"us_busy":      "480@-24,620@-24;10(.5/.5/1+2)",
	"us_reorder":   "480@-24,620@-24;10(.25/.25/1+2)",
	"us_SIT":       "985.2@-16,1370.6@-16,1776.7@-16;5(.380/0/1,.276/0/2,.380/0/3,0/1/0)",
	"ringer":       "10(.2/.2,.2/.2,.2/.2,1/4)",
	"stutter_dial": "350@-19,440@-19;2(.1/.1/1+2);10(*/0/1+2)",
}

// Names returns the catalog names in sorted order.
func Names() []string {
	names := make([]string, 0, len(CallProgress))
	for name := range CallProgress {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup compiles the named catalog entry. ok is false for unknown names.
func Lookup(name string) (script *Script, ok bool, err error) {
	text, ok := CallProgress[name]
	if !ok {
		return nil, false, nil
	}
	script, err = Parse(name, text)
	return script, true, err
}

// Search returns catalog names matching pattern, best match first. An empty
// pattern returns every name.
func Search(pattern string) []string {
	names := Names()
	if pattern == "" {
		return names
	}
	matches := fuzzy.Find(pattern, names)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
