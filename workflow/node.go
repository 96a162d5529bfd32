package workflow

import (
	"encoding/json"
	"fmt"
)

type Node int

const (
	NodeRouteEntry Node = iota
	NodeRetrieve
	NodeGradeDocuments
	NodeWebSearch
	NodeGenerate
	NodeDone
)

var nodeNames = map[Node]string{
	NodeRouteEntry:     "route_entry",
	NodeRetrieve:       "retrieve",
	NodeGradeDocuments: "grade_documents",
	NodeWebSearch:      "websearch",
	NodeGenerate:       "generate",
	NodeDone:           "done",
}

func (n Node) String() string {
	if name, ok := nodeNames[n]; ok {
		return name
	}
	return fmt.Sprintf("node(%d)", int(n))
}

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// Decision labels the edge taken out of a node.
type Decision string

const (
	DecisionWebSearch    Decision = "websearch"
	DecisionVectorstore  Decision = "vectorstore"
	DecisionContinue     Decision = "continue"
	DecisionGenerate     Decision = "generate"
	DecisionNotSupported Decision = "not supported"
	DecisionUseful       Decision = "useful"
	DecisionNotUseful    Decision = "not useful"
	DecisionMaxRetries   Decision = "max retries"
)

var transitions = map[Node]map[Decision]Node{
	NodeRouteEntry: {
		DecisionWebSearch:   NodeWebSearch,
		DecisionVectorstore: NodeRetrieve,
	},
	NodeRetrieve: {
		DecisionContinue: NodeGradeDocuments,
	},
	NodeGradeDocuments: {
		DecisionWebSearch: NodeWebSearch,
		DecisionGenerate:  NodeGenerate,
	},
	NodeWebSearch: {
		DecisionContinue: NodeGenerate,
	},
	NodeGenerate: {
		DecisionNotSupported: NodeGenerate,
		DecisionUseful:       NodeDone,
		DecisionNotUseful:    NodeWebSearch,
		DecisionMaxRetries:   NodeDone,
	},
}

// Transition returns the node that follows from on decision.
func Transition(from Node, decision Decision) (Node, error) {
	next, ok := transitions[from][decision]
	if !ok {
		return NodeDone, fmt.Errorf("no transition from %s on %q", from, decision)
	}
	return next, nil
}

// decideAfterGeneration applies the retry bound. The comparison is inclusive, so a run makes at
// most maxRetries+1 generation attempts.
func decideAfterGeneration(grounded, useful bool, loopStep, maxRetries int) Decision {
	switch {
	case !grounded && loopStep <= maxRetries:
		return DecisionNotSupported
	case !grounded:
		return DecisionMaxRetries
	case useful:
		return DecisionUseful
	case loopStep <= maxRetries:
		return DecisionNotUseful
	default:
		return DecisionMaxRetries
	}
}
