package stage

// ID names one step in the fixed generation pipeline.
type ID string

const (
	PromptExecution  ID = "PROMPT_EXECUTION"
	ResponseParsing  ID = "RESPONSE_PARSING"
	CodeValidation   ID = "CODE_VALIDATION"
	Building         ID = "BUILDING"
	RenderingSample  ID = "RENDERING_SAMPLE"
	ExportingContent ID = "EXPORTING_CONTENT"
	PostProcessing   ID = "POST_PROCESSING"
	PreparingSample  ID = "PREPARING_SAMPLE"
)

// UnknownRank is returned for stages outside the catalog and for the
// not-yet-started case. It sorts below every real stage.
const UnknownRank = -1

var order = []ID{
	PromptExecution,
	ResponseParsing,
	CodeValidation,
	Building,
	RenderingSample,
	ExportingContent,
	PostProcessing,
	PreparingSample,
}

var rankByID = func() map[ID]int {
	ranks := make(map[ID]int, len(order))
	for i, id := range order {
		ranks[id] = i
	}
	return ranks
}()

// Order returns the pipeline stages in execution order.
func Order() []ID {
	out := make([]ID, len(order))
	copy(out, order)
	return out
}

// Rank returns the catalog position of id, or UnknownRank when the
// stage is not part of the pipeline.
func Rank(id ID) int {
	if rank, ok := rankByID[id]; ok {
		return rank
	}
	return UnknownRank
}

// Known reports whether id is part of the pipeline catalog.
func Known(id ID) bool {
	_, ok := rankByID[id]
	return ok
}
