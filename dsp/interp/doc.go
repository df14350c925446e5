// Package interp provides sub-sample peak and valley refinement.
//
//   - [Parabolic]: 3-point quadratic vertex, used to refine YIN lag valleys
package interp
