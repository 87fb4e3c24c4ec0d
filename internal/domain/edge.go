package domain

// StageEdge declares that a downstream task must not start until an artifact
// produced by an upstream task exists on durable storage. The set of edges
// over a batch forms the stage dependency graph, which must stay acyclic.
type StageEdge struct {
	// Upstream is the task expected to produce the artifact.
	Upstream string `yaml:"upstream" json:"upstream"`

	// Downstream is the task held back until the artifact exists.
	Downstream string `yaml:"downstream" json:"downstream"`

	// ArtifactPath is the filesystem path whose existence satisfies the edge.
	ArtifactPath string `yaml:"artifact" json:"artifact"`
}
