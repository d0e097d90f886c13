// Package projectscan implements the project-only analysis stage: repository
// wide aggregates over the parsed inventory (file and line counts, language
// mix, finding tallies) plus a short hotspot list naming the files that
// concentrate findings or sheer size.
package projectscan
