package resolve

import "sort"

// Priority bases keep service and function rules in disjoint ranges so the
// two entity kinds can never collide on a listener priority.
const (
	servicePriorityBase  = 100
	functionPriorityBase = 1000
)

// classifyRouting evaluates the placement decision table for one entity.
// First match wins:
//
//  1. no http exposure            -> None
//  2. subdomain set               -> host-based (ALB rule for services,
//     API Gateway custom domain for functions)
//  3. path_pattern set            -> path-based (ALB rule for services,
//     CloudFront behavior for functions)
//  4. neither                     -> catch-all path routing under a
//     synthesized pattern
//
// Subdomain routing on a too-deep project domain is rejected during
// validation, so it cannot reach this table.
func classifyRouting(e *Entity) RoutingDecision {
	http := e.httpSpec()
	if http == nil {
		return RoutingDecision{Kind: RoutingNone}
	}

	d := RoutingDecision{
		Subdomain:   http.Subdomain,
		PathPattern: http.PathPattern,
		Port:        http.Port,
		CORS:        http.CORS,
	}

	switch {
	case http.Subdomain != "":
		if e.Kind == KindService {
			d.Kind = RoutingAlbHost
		} else {
			d.Kind = RoutingApigwSubdomain
		}
	case http.PathPattern != "":
		if e.Kind == KindService {
			d.Kind = RoutingAlbPath
		} else {
			d.Kind = RoutingCloudfrontPath
		}
	default:
		d.CatchAll = true
		if e.Kind == KindService {
			d.Kind = RoutingAlbPath
			d.PathPattern = "/*"
		} else {
			d.Kind = RoutingApigwPath
			d.PathPattern = "/" + e.Name + "/*"
		}
	}
	return d
}

// assignPriorities hands out deterministic, non-colliding listener-rule
// priorities. Entities are walked in name order within each kind bucket, so
// the numbering is stable across runs regardless of map iteration.
func assignPriorities(entities []*ResolvedEntity) {
	byName := append([]*ResolvedEntity(nil), entities...)
	sort.Slice(byName, func(i, j int) bool { return byName[i].Name < byName[j].Name })

	next := map[EntityKind]int{
		KindService:  servicePriorityBase,
		KindFunction: functionPriorityBase,
	}
	for _, e := range byName {
		if e.Routing.Kind == RoutingNone {
			continue
		}
		e.Routing.Priority = next[e.Kind]
		next[e.Kind]++
	}
}
