// Package geom defines the planar point, path and loop types shared by the
// planner packages. Loops carry a cumulative arc-length parametrisation used
// to cut and re-thread them at an arbitrary position.
package geom
