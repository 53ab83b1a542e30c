/*

Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each package stores its configuration as a single entity, serialized and
kept under a key built out of the package name. Configuration is loaded
from the genesis during the application initialization and can be updated
at runtime through the UpdateConfigurationHandler, authorized by the
configuration owner.

*/
package gconf
