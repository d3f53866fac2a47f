// Package track implements the trackable object hierarchy and the
// deterministic reachability walk used to discover stateful objects
// before export.
package track

import "sort"

// Trackable is the capability required of every object participating
// in the tracked ownership hierarchy, including the export root.
type Trackable interface {
	// TrackableChildren returns the object's named dependencies.
	// Leaves return nil.
	TrackableChildren() map[string]Trackable
}

// Container is a ready-made Trackable that tracks children by name.
// Embed it or use it directly as an export root.
type Container struct {
	children map[string]Trackable
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{children: make(map[string]Trackable)}
}

// Track registers a named child, replacing any previous child with the
// same name.
func (c *Container) Track(name string, child Trackable) {
	if c.children == nil {
		c.children = make(map[string]Trackable)
	}
	c.children[name] = child
}

// TrackableChildren implements Trackable.
func (c *Container) TrackableChildren() map[string]Trackable {
	return c.children
}

// TrackedObject is one reachable object together with its slash-joined
// attribute path from the root. The root itself has an empty path.
type TrackedObject struct {
	Object Trackable
	Path   string
}

// List enumerates all objects reachable from root in deterministic
// order: breadth-first, visiting each node's children in name order.
// Cycles in the hierarchy are handled with a visited set; an object
// reachable through several paths is listed once, under the first path
// encountered.
func List(root Trackable) []TrackedObject {
	visited := map[Trackable]bool{root: true}
	result := []TrackedObject{{Object: root}}
	queue := []TrackedObject{{Object: root}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children := current.Object.TrackableChildren()
		names := make([]string, 0, len(children))
		for name := range children {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			child := children[name]
			if child == nil || visited[child] {
				continue
			}
			visited[child] = true
			path := name
			if current.Path != "" {
				path = current.Path + "/" + name
			}
			entry := TrackedObject{Object: child, Path: path}
			result = append(result, entry)
			queue = append(queue, entry)
		}
	}
	return result
}

// ListObjects is List without paths.
func ListObjects(root Trackable) []Trackable {
	tracked := List(root)
	objects := make([]Trackable, len(tracked))
	for i, to := range tracked {
		objects[i] = to.Object
	}
	return objects
}
