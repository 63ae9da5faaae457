/*
go-visionvoice is a vision based navigation assistant for blind and low
vision users.  It watches camera frames for obstacles, tracks each object
over time to judge how it is moving relative to the user, and speaks
short guidance phrases when something needs attention.

The ani package contains the temporal tracking core: detections from any
object detector are associated with persistent tracks, motion is
classified, positions are predicted a short horizon ahead and a debounced
risk level is maintained per track.

The surrounding packages supply the pipeline around that core: detect
runs an ONNX object detection model, depth estimates monocular depth,
narrate turns track snapshots into spoken phrases via a language model,
speech synthesizes audio, and server streams annotated frames to a
browser.

See example code and usage in the example subdirectory.
*/
package visionvoice
