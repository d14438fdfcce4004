package booster

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-boost/dom"
)

// Discover returns every audio or video element reachable from root,
// including elements inside encapsulated subtrees, in document order.
// root itself is included when it is a media element, so Discover can be
// scoped to a freshly inserted subtree.
//
// A subtree that cannot be opened is skipped; its error is reported as a
// DiscoveryFailure joined into the returned error while the elements found
// elsewhere are still returned.
func Discover(root dom.Node) ([]dom.Element, error) {
	return DiscoverAll([]dom.Node{root})
}

// DiscoverAll runs Discover over several roots and merges the results.
// An element reachable from more than one root, or by more than one path,
// is returned once.
func DiscoverAll(roots []dom.Node) ([]dom.Element, error) {
	s := scan{seen: map[dom.Element]struct{}{}}

	for _, root := range roots {
		if root == nil {
			continue
		}

		s.visit(root)
	}

	return s.found, errors.Join(s.errs...)
}

type scan struct {
	seen  map[dom.Element]struct{}
	found []dom.Element
	errs  []error
}

func (s *scan) visit(n dom.Node) {
	el, isElement := n.(dom.Element)
	if isElement && dom.IsMediaTag(el.TagName()) {
		if _, dup := s.seen[el]; !dup {
			s.seen[el] = struct{}{}
			s.found = append(s.found, el)
		}
	}

	for _, child := range n.Children() {
		s.visit(child)
	}

	shadow, err := n.ShadowRoot()
	if err != nil {
		s.errs = append(s.errs, failure(DiscoveryFailure,
			fmt.Errorf("open shadow tree of %s: %w", describeNode(n), err)))

		return
	}

	if shadow != nil {
		s.visit(shadow)
	}
}

func describeNode(n dom.Node) string {
	if el, ok := n.(dom.Element); ok {
		return "<" + el.TagName() + ">"
	}

	return fmt.Sprintf("%T", n)
}

// Watch subscribes fn to subtrees inserted under root. root must
// implement dom.Observable; anything else yields an ObserverSetupFailure.
func Watch(root dom.Node, fn func(added []dom.Node)) (stop func(), err error) {
	obs, ok := root.(dom.Observable)
	if !ok {
		return nil, failure(ObserverSetupFailure, fmt.Errorf("%s does not report mutations", describeNode(root)))
	}

	stop, err = obs.Observe(fn)
	if err != nil {
		return nil, failure(ObserverSetupFailure, err)
	}

	return stop, nil
}
