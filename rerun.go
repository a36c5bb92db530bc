package jobrunner

// Rerun builds the pipeline for the next pass from a pipeline with
// recorded per-job outcomes. The new tree has the original shape:
// succeeded jobs turn into skip markers that keep their external ids
// in the dependency wiring, failed and never-reached jobs are kept for
// resubmission under their original ids, and a composite whose every
// descendant succeeded is pruned to a single marker forwarding the
// joined id of the prior run.
func Rerun(p *Pipeline) *Pipeline {
	np, _ := rerunNode(p)
	return np.(*Pipeline)
}

// rerunNode returns the node's rerun form and whether any descendant
// still needs to be resubmitted.
func rerunNode(n JobNode) (JobNode, bool) {
	switch v := n.(type) {
	case *Job:
		if v.Status == StatusSucceeded {
			return &Skip{JobID: v.JobID, ExternalIDs: []string{v.ExternalID}}, false
		}
		// Failed, submitted-but-unobserved and never-reached jobs all
		// run again, under the same job id.
		return &Job{Script: v.Script, Profile: v.Profile, JobID: v.JobID, Status: StatusPending}, true
	case *Skip:
		ids := append([]string(nil), v.ExternalIDs...)
		return &Skip{JobID: v.JobID, ExternalIDs: ids}, false
	case *Sequential:
		jobs, pending := rerunChildren(v.Jobs)
		if !pending {
			// The whole chain succeeded. Downstream consumers only
			// ever depended on the last child's ids.
			return &Skip{JobID: v.Name, ExternalIDs: priorIDs(v)}, false
		}
		return &Sequential{Name: v.Name, Jobs: jobs}, true
	case *Parallel:
		jobs, pending := rerunChildren(v.Jobs)
		if !pending {
			return &Skip{JobID: v.Name, ExternalIDs: priorIDs(v)}, false
		}
		return &Parallel{Name: v.Name, Jobs: jobs}, true
	case *Pipeline:
		// A nested pipeline is as pending as its definition, so an
		// enclosing composite can still prune around it.
		def, pending := rerunNode(v.Definition)
		return &Pipeline{
			Name:       v.Name,
			JobID:      v.JobID,
			Definition: def,
			WorkDir:    v.WorkDir,
		}, pending
	}
	return n, false
}

func rerunChildren(jobs []JobNode) ([]JobNode, bool) {
	next := make([]JobNode, len(jobs))
	pending := false
	for i, j := range jobs {
		n, p := rerunNode(j)
		next[i] = n
		pending = pending || p
	}
	return next, pending
}

// priorIDs collects the external ids the node returned when it ran:
// a job's own id, the last child's ids for a sequential chain, all
// children's ids for a parallel fan-out.
func priorIDs(n JobNode) []string {
	switch v := n.(type) {
	case *Job:
		if v.ExternalID == "" {
			return nil
		}
		return []string{v.ExternalID}
	case *Skip:
		return v.ExternalIDs
	case *Sequential:
		if len(v.Jobs) == 0 {
			return nil
		}
		return priorIDs(v.Jobs[len(v.Jobs)-1])
	case *Parallel:
		ids := []string{}
		for _, c := range v.Jobs {
			ids = append(ids, priorIDs(c)...)
		}
		return ids
	case *Pipeline:
		return priorIDs(v.Definition)
	}
	return nil
}
