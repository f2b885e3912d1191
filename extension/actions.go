package extension

import (
	"sort"
	"sync"

	"github.com/viant/sourcepatch/model/types"
)

// Tool binds a tool name to the service method implementing it.
type Tool struct {
	Service   types.Service
	Signature *types.Signature
}

// Actions provides action services
type Actions struct {
	services map[string]types.Service
	tools    map[string]*Tool
	mux      sync.RWMutex
}

// Lookup returns a service by name
func (s *Actions) Lookup(name string) types.Service {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.services[name]
}

// LookupTool returns the method registered under a tool name
func (s *Actions) LookupTool(name string) (*Tool, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	tool, ok := s.tools[name]
	return tool, ok
}

// Register registers a service and indexes its tool names. A later service
// replaces the tools of an earlier one with the same names.
func (s *Actions) Register(service types.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.services[service.Name()] = service
	signatures := service.Methods()
	for i := range signatures {
		signature := &signatures[i]
		if signature.Tool == "" {
			continue
		}
		s.tools[signature.Tool] = &Tool{Service: service, Signature: signature}
	}
}

// Tools returns registered tools sorted by name
func (s *Actions) Tools() []*Tool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	result := make([]*Tool, 0, len(s.tools))
	for _, tool := range s.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Signature.Tool < result[j].Signature.Tool })
	return result
}

// NewActions creates a new action registry
func NewActions(services ...types.Service) *Actions {
	ret := &Actions{
		services: make(map[string]types.Service),
		tools:    make(map[string]*Tool),
	}
	for _, service := range services {
		if service != nil {
			ret.Register(service)
		}
	}
	return ret
}
