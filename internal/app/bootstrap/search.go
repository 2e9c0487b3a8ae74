// internal/app/bootstrap/search.go
package bootstrap

import (
	"errors"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
)

var errMeiliDown = errors.New("meilisearch unreachable")

// The services take interfaces; a nil *search.Service must reach them as a
// nil interface, not a typed nil.

func searchIndex(s *search.Service) lifecycle.SearchIndex {
	if s == nil {
		return nil
	}
	return s
}

func searcher(s *search.Service) resolver.Searcher {
	if s == nil {
		return nil
	}
	return s
}

func indexer(s *search.Service) search.Indexer {
	if s == nil {
		return nil
	}
	return s
}
