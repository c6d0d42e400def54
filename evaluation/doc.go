// Package evaluation replays curated ground-truth queries through each
// retrieval strategy and scores the aggregated results against the expected
// datasets with a semantic precision/recall/F1 metric.
//
// Scores compare description text only. Both description lists are
// truncated to the shorter one before aligned pairs are scored, so a
// strategy returning fewer results than the ground truth lists is scored on
// what it returned.
package evaluation
