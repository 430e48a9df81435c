package roster

import (
	"errors"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/eapache/queue"
)

// DuplicateCluster groups the document numbers of roster rows that look
// like the same person. Clusters are reported on the upload record for
// manual review; rows are never merged automatically.
type DuplicateCluster struct {
	Documents []string `bson:"documents" json:"documents"`
}

// FindDuplicateClusters connects rows whose full name and birth date match
// under different document numbers, then walks the connected components.
func FindDuplicateClusters(rows []Row) ([]DuplicateCluster, error) {
	g := graph.New(rowHash)
	for _, row := range rows {
		if err := g.AddVertex(row); err != nil {
			return nil, err
		}
	}

	byIdentity := map[string][]string{}
	for _, row := range rows {
		if identity := rowIdentity(row); identity != "" {
			byIdentity[identity] = append(byIdentity[identity], rowHash(row))
		}
	}

	for _, documents := range byIdentity {
		for i := 0; i < len(documents); i++ {
			for j := i + 1; j < len(documents); j++ {
				err := g.AddEdge(documents[i], documents[j])
				if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
					return nil, err
				}
			}
		}
	}

	return clustersOf(g)
}

func clustersOf(g graph.Graph[string, Row]) ([]DuplicateCluster, error) {
	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{}
	clusters := make([]DuplicateCluster, 0)

	for document := range adjacencyMap {
		cluster := DuplicateCluster{}

		q := queue.New()
		q.Add(document)
		for q.Length() != 0 {
			current := q.Remove().(string)
			if _, ok := visited[current]; ok {
				continue
			}

			for neighbor := range adjacencyMap[current] {
				q.Add(neighbor)
			}

			cluster.Documents = append(cluster.Documents, current)
			visited[current] = struct{}{}
		}

		if len(cluster.Documents) > 1 {
			sort.Strings(cluster.Documents)
			clusters = append(clusters, cluster)
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Documents[0] < clusters[j].Documents[0]
	})
	return clusters, nil
}

func rowHash(row Row) string {
	return row.Patient.DocumentNumber
}

// rowIdentity keys a row by normalized full name and birth date. Rows
// missing either can't be matched and never join a cluster.
func rowIdentity(row Row) string {
	if row.Patient.BirthDate == nil {
		return ""
	}
	name := strings.ToLower(strings.TrimSpace(foldAccents(row.Patient.FullName)))
	if name == "" {
		return ""
	}
	return name + "|" + row.Patient.BirthDate.Format("2006-01-02")
}
