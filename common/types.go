// package common contains plain data types and math helpers shared across the
// visualizer packages. They are not interface-wrapped structs, just plain
// structs that express commonly used data-types.
package common

// Mat4 is a 4x4 column-major homogeneous transformation matrix.
type Mat4 = [16]float32

// Identity4 is the 4x4 identity matrix.
var Identity4 = Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
