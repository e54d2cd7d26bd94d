package httpapp

import "strings"

// HandlerFunc answers one request, writing status/headers/body via resp.
type HandlerFunc func(req *Request, resp *ResponseWriter)

// trieNode is one segment of a prefix trie keyed on '/'-delimited path
// segments. A static child map is tried first; a single param child (named
// by paramName, segment prefixed ':') matches anything, per spec.md §1's
// call-out of "URL routing via a prefix trie" as an out-of-scope-for-core
// concern this package exists to supply.
type trieNode struct {
	children  map[string]*trieNode
	param     *trieNode
	paramName string
	handlers  map[string]HandlerFunc // method -> handler
}

// Router dispatches a method+path to a registered HandlerFunc.
type Router struct {
	root *trieNode

	// NotFound, when set, handles any request no route matched (e.g. a
	// static file fallback), instead of the router's own 404 response.
	NotFound HandlerFunc
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{root: &trieNode{}}
}

// Handle registers fn for method and path. path segments beginning with
// ':' bind a path parameter, retrievable from Request.Param.
func (r *Router) Handle(method, path string, fn HandlerFunc) {
	node := r.root
	for _, seg := range splitPath(path) {
		if strings.HasPrefix(seg, ":") {
			if node.param == nil {
				node.param = &trieNode{}
			}
			node.param.paramName = seg[1:]
			node = node.param
			continue
		}
		if node.children == nil {
			node.children = make(map[string]*trieNode)
		}
		child, ok := node.children[seg]
		if !ok {
			child = &trieNode{}
			node.children[seg] = child
		}
		node = child
	}
	if node.handlers == nil {
		node.handlers = make(map[string]HandlerFunc)
	}
	node.handlers[method] = fn
}

// Match walks the trie for method+path, returning the handler and any
// bound path parameters. ok is false when no route matches.
func (r *Router) Match(method, path string) (fn HandlerFunc, params map[string]string, ok bool) {
	node := r.root
	var collected map[string]string
	for _, seg := range splitPath(path) {
		if child, exists := node.children[seg]; exists {
			node = child
			continue
		}
		if node.param != nil {
			if collected == nil {
				collected = make(map[string]string)
			}
			collected[node.param.paramName] = seg
			node = node.param
			continue
		}
		return nil, nil, false
	}
	fn, ok = node.handlers[method]
	return fn, collected, ok
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
