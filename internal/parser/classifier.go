package parser

import (
	"fmt"

	"mirrorScope/internal/model"
)

// EventFromContract is the event type carrying contract-emitted attributes.
const EventFromContract = "from_contract"

// Invocation is a decoded contract call ready for classification.
type Invocation struct {
	Record   model.InvocationRecord
	Contract model.Contract
	Action   string
	Log      AttributeLog
}

// NewInvocation decodes the message action and the from_contract attributes.
func NewInvocation(record model.InvocationRecord, contract model.Contract) (Invocation, error) {
	action, _, err := record.Action()
	if err != nil {
		return Invocation{}, err
	}
	return Invocation{
		Record:   record,
		Contract: contract,
		Action:   action,
		Log:      FindAttributes(record.Events, EventFromContract),
	}, nil
}

// Result is a classified transaction and the aggregate updates it triggers.
type Result struct {
	Tx      model.Transaction
	Updates []model.AggregateUpdate
}

// Classifier maps an invocation to a Result. A nil Result with a nil error
// means the message shape is not handled by this classifier.
type Classifier interface {
	Classify(inv Invocation) (*Result, error)
}

// Registry dispatches invocations to a classifier by contract type.
type Registry struct {
	classifiers map[model.ContractType]Classifier
}

func NewRegistry() *Registry {
	return &Registry{classifiers: make(map[model.ContractType]Classifier)}
}

// Register binds a classifier to a contract type, replacing any previous one.
func (r *Registry) Register(contractType model.ContractType, classifier Classifier) {
	r.classifiers[contractType] = classifier
}

// Classify runs the classifier for the invocation's contract type.
func (r *Registry) Classify(inv Invocation) (*Result, error) {
	classifier, ok := r.classifiers[inv.Contract.Type]
	if !ok {
		return nil, nil
	}
	result, err := classifier.Classify(inv)
	if err != nil {
		return nil, fmt.Errorf("classify %s/%s: %w", inv.Contract.Type, inv.Action, err)
	}
	return result, nil
}
