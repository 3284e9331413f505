package evolution

import "github.com/huangsam/classdrift/schema"

// resetEvolution clears the metrics this package owns so passes can be re-run.
func resetEvolution(v *schema.VersionSnapshot) {
	v.HasDeletedClasses = false
	for _, c := range v.Classes {
		for _, m := range []schema.Metric{
			schema.EvolutionStatusMetric, schema.NextVersionStatusMetric, schema.BornRSN,
			schema.Age, schema.ModificationFrequency, schema.EvolutionDistance,
			schema.ModifiedMetricCount, schema.DistanceMovedSinceBirth,
			schema.ModifiedMetricCountSinceBirth, schema.BirthStatusMetric, schema.Renamed,
		} {
			c.Set(m, 0)
		}
		c.RenamedFrom = ""
	}
}

func markAdded(c *schema.ClassRecord, rsn int) {
	c.Set(schema.EvolutionStatusMetric, schema.StatusAdded)
	c.Set(schema.BornRSN, rsn)
	c.Set(schema.Age, 0)
	c.Set(schema.ModificationFrequency, 0)
	c.Set(schema.EvolutionDistance, 0)
	c.Set(schema.ModifiedMetricCount, 0)
}

// previousAge treats a newborn (age 0) as one release old on its next sighting.
func previousAge(prev *schema.ClassRecord) int {
	return max(prev.Get(schema.Age), 1)
}

func markUnchanged(prev, cur *schema.ClassRecord) {
	cur.Set(schema.EvolutionStatusMetric, schema.StatusUnchanged)
	cur.Set(schema.Age, previousAge(prev)+1)
	cur.Set(schema.ModificationFrequency, prev.Get(schema.ModificationFrequency))
	cur.Set(schema.EvolutionDistance, 0)
	cur.Set(schema.ModifiedMetricCount, 0)
}

func markModified(prev, cur *schema.ClassRecord) {
	cur.Set(schema.EvolutionStatusMetric, schema.StatusModified)
	cur.Set(schema.Age, 1)
	cur.Set(schema.ModificationFrequency, prev.Get(schema.ModificationFrequency)+1)
	cur.Set(schema.EvolutionDistance, Distance(prev, cur))
	cur.Set(schema.ModifiedMetricCount, MismatchCount(prev, cur))
}

// diffFirst classifies every class of the first release as added.
func diffFirst(first *schema.VersionSnapshot) {
	resetEvolution(first)
	for _, c := range first.Classes {
		markAdded(c, first.RSN)
	}
}

// diffPair classifies every class of cur against prev and marks the classes of
// prev that are gone in cur as deleted.
func diffPair(prev, cur *schema.VersionSnapshot) {
	resetEvolution(cur)
	prev.HasDeletedClasses = false
	for _, c := range prev.Classes {
		c.Set(schema.NextVersionStatusMetric, 0)
	}

	for _, name := range cur.ClassNames() {
		c := cur.Classes[name]
		p, ok := prev.Classes[name]
		if !ok {
			markAdded(c, cur.RSN)
			continue
		}
		c.Set(schema.BornRSN, p.Get(schema.BornRSN))
		if Equal(p, c) {
			markUnchanged(p, c)
		} else {
			markModified(p, c)
		}
		p.Set(schema.NextVersionStatusMetric, c.Get(schema.EvolutionStatusMetric))
	}

	for name, p := range prev.Classes {
		if _, ok := cur.Classes[name]; !ok {
			p.Set(schema.NextVersionStatusMetric, schema.StatusDeleted)
			prev.HasDeletedClasses = true
		}
	}
}

// birthDistance compares a class with its first appearance.
func birthDistance(c, ancestor *schema.ClassRecord) {
	if Equal(ancestor, c) {
		c.Set(schema.BirthStatusMetric, schema.BirthNeverModified)
		c.Set(schema.DistanceMovedSinceBirth, 0)
		c.Set(schema.ModifiedMetricCountSinceBirth, 0)
		return
	}
	c.Set(schema.BirthStatusMetric, schema.BirthModifiedAfterBirth)
	c.Set(schema.DistanceMovedSinceBirth, Distance(ancestor, c))
	c.Set(schema.ModifiedMetricCountSinceBirth, MismatchCount(ancestor, c))
}

func markNewBorn(c *schema.ClassRecord) {
	c.Set(schema.BirthStatusMetric, schema.BirthNewBorn)
	c.Set(schema.DistanceMovedSinceBirth, 0)
	c.Set(schema.ModifiedMetricCountSinceBirth, 0)
}
