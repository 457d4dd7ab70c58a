// Package node models a node instance of a deployment graph as the
// lifecycle controller sees it: typed static properties, durable runtime
// properties, relationships to other node instances and the deployment-wide
// provider and bootstrap contexts.
package node
