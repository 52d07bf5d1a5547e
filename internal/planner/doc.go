// Package planner previews a deployment before anything is written.
//
// A DeployPlan lists, per item, whether the destination will be created or
// overwritten (and so backed up), and which items are blocked by missing
// tools. Building a plan reads the filesystem and queries the requirement
// oracle but never modifies anything.
package planner
