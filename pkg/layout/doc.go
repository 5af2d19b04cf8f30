// Package layout places directory trees on a 2D plane.
//
// The engine runs three passes over a [tree.Tree]:
//
//  1. Sizing (post-order): each node's rectangle is sized from its label,
//     and each subtree's required vertical extent is accumulated from its
//     children's extents plus inter-sibling spacing.
//  2. Positioning (pre-order): children are stacked vertically by extent,
//     every child sits one level gap to the right of its parent, and the
//     parent is centered on its children's vertical span.
//  3. Overlap resolution: a deterministic depth-by-depth sweep pushes down
//     any rectangle that still intersects its predecessor at the same
//     depth. The sweep is idempotent - rerunning it on resolved positions
//     moves nothing.
//
// After Compute, no two rectangles overlap and layout never reorders
// siblings: tie-breaks always follow the tree's enumeration order.
//
// The package also contains the connector router, which turns parent/child
// rectangle pairs into orthogonal polylines for the renderer.
package layout
