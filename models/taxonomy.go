package models

// Decision keys for the accessibility disposition of a document. "Done" is a
// grouping node whose children are the storable terminal decisions.
const (
	DefaultDecision   = "Needs Decision"
	InReviewDecision  = "In Review"
	DoneDecision      = "Done"
	ArchiveDecision   = "Archive"
	RemoveDecision    = "Remove"
	ConvertDecision   = "Convert"
	RemediateDecision = "Remediate"
	LeaveDecision     = "Leave"
)

// DecisionInfo is one node of the decision taxonomy. Nodes with children are
// groupings only and are never stored on a document.
type DecisionInfo struct {
	Key      string
	Label    string
	Children []DecisionInfo
}

// DecisionTypes is the ordered decision taxonomy shared by validation,
// filtering and the insights views.
var DecisionTypes = []DecisionInfo{
	{Key: DefaultDecision, Label: "Needs Decision"},
	{Key: InReviewDecision, Label: "PDF is in Review"},
	{Key: DoneDecision, Label: "Done", Children: []DecisionInfo{
		{Key: ArchiveDecision, Label: "Place PDF in Archive Section"},
		{Key: RemoveDecision, Label: "Remove PDF from Website"},
		{Key: ConvertDecision, Label: "Convert PDF to HTML"},
		{Key: RemediateDecision, Label: "Remediate PDF"},
		{Key: LeaveDecision, Label: "Leave PDF As-is"},
	}},
}

// DecisionOptions flattens the taxonomy into storable key -> label pairs.
// Grouping nodes are replaced by their children.
func DecisionOptions() map[string]string {
	options := make(map[string]string)
	for _, item := range DecisionTypes {
		if len(item.Children) > 0 {
			for _, child := range item.Children {
				options[child.Key] = child.Label
			}
			continue
		}
		options[item.Key] = item.Label
	}
	return options
}

// DecisionKeys returns the storable decision keys in taxonomy order.
func DecisionKeys() []string {
	keys := make([]string, 0, len(DecisionTypes))
	for _, item := range DecisionTypes {
		if len(item.Children) > 0 {
			for _, child := range item.Children {
				keys = append(keys, child.Key)
			}
			continue
		}
		keys = append(keys, item.Key)
	}
	return keys
}

// ExpandDecision maps a grouping key ("Done") to its children so filters can
// match the stored terminal decisions. Terminal keys map to themselves.
func ExpandDecision(key string) []string {
	for _, item := range DecisionTypes {
		if item.Key == key && len(item.Children) > 0 {
			children := make([]string, 0, len(item.Children))
			for _, child := range item.Children {
				children = append(children, child.Key)
			}
			return children
		}
	}
	return []string{key}
}

// IsValidDecision reports whether key is a storable decision.
func IsValidDecision(key string) bool {
	for _, k := range DecisionKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// DefaultCategory is the catch-all content type assigned when a crawler
// reports a document without a predicted category.
const DefaultCategory = "Other"

// ContentTypes is the fixed document category list. DefaultCategory is the
// trailing catch-all.
var ContentTypes = []string{
	"Agreement", "Agenda", "Brochure", "Diagram", "Flyer", "Form", "Job",
	"Letter", "Policy", "Slides", "Press", "Procurement", "Notice", "Report",
	"Spreadsheet", DefaultCategory,
}

// IsValidContentType reports whether category is in the fixed list.
func IsValidContentType(category string) bool {
	for _, c := range ContentTypes {
		if c == category {
			return true
		}
	}
	return false
}

// Workflow stage of the audit, orthogonal to the accessibility decision.
const (
	DefaultStatus   = "Audit Backlog"
	InReviewStatus  = "In Review"
	AuditDoneStatus = "Audit Done"
)

// Statuses is the fixed workflow stage list, in progression order.
var Statuses = []string{DefaultStatus, InReviewStatus, AuditDoneStatus}

// IsValidStatus reports whether status is a known workflow stage.
func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Derived complexity flags.
const (
	SimpleComplexity  = "Simple"
	ComplexComplexity = "Complex"
)

// Complexities lists the derived complexity values.
var Complexities = []string{SimpleComplexity, ComplexComplexity}

// AI suggestion labels shown when no human has decided yet.
const (
	AISuggestionException   = "Might be exception"
	AISuggestionNoException = "Likely not exception"
)
