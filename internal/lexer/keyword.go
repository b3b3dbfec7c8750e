package lexer

import "sort"

// DirectiveClass groups PTX directives by what they introduce.
type DirectiveClass int

const (
	DirectiveUnknown  DirectiveClass = iota
	DirectiveModule                  // module header (.version, .target, .address_size)
	DirectiveLinkage                 // linkage and symbol kind (.visible, .entry, .func, .extern)
	DirectiveState                   // state spaces (.reg, .param, .shared, .global)
	DirectivePerf                    // performance tuning (.maxntid, .reqntid)
	DirectiveDebug                   // debugging (.file, .loc, .section)
)

func (c DirectiveClass) String() string {
	switch c {
	case DirectiveModule:
		return "module"
	case DirectiveLinkage:
		return "linkage"
	case DirectiveState:
		return "state"
	case DirectivePerf:
		return "perf"
	case DirectiveDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// directives is the sorted directive table for binary search.
// IMPORTANT: This slice MUST remain sorted by text in byte order.
var directives = []struct {
	text  string
	class DirectiveClass
}{
	{".address_size", DirectiveModule},
	{".align", DirectiveState},
	{".callprototype", DirectiveLinkage},
	{".common", DirectiveLinkage},
	{".const", DirectiveState},
	{".entry", DirectiveLinkage},
	{".extern", DirectiveLinkage},
	{".file", DirectiveDebug},
	{".func", DirectiveLinkage},
	{".global", DirectiveState},
	{".loc", DirectiveDebug},
	{".local", DirectiveState},
	{".maxnctapersm", DirectivePerf},
	{".maxnreg", DirectivePerf},
	{".maxntid", DirectivePerf},
	{".minnctapersm", DirectivePerf},
	{".param", DirectiveState},
	{".pragma", DirectivePerf},
	{".reg", DirectiveState},
	{".reqntid", DirectivePerf},
	{".section", DirectiveDebug},
	{".shared", DirectiveState},
	{".target", DirectiveModule},
	{".tex", DirectiveState},
	{".version", DirectiveModule},
	{".visible", DirectiveLinkage},
	{".weak", DirectiveLinkage},
}

// LookupDirective returns the class of a known PTX directive.
func LookupDirective(text string) (DirectiveClass, bool) {
	idx := sort.Search(len(directives), func(i int) bool {
		return directives[i].text >= text
	})
	if idx < len(directives) && directives[idx].text == text {
		return directives[idx].class, true
	}
	return DirectiveUnknown, false
}
